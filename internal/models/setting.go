package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Setting is a singleton document; GET creates it with defaults when absent.
type Setting struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteName           string             `bson:"siteName" json:"siteName"`
	SupportEmail       string             `bson:"supportEmail,omitempty" json:"supportEmail,omitempty"`
	Currency           string             `bson:"currency" json:"currency"`
	MaintenanceMode    bool               `bson:"maintenanceMode" json:"maintenanceMode"`
	OrderNotifications bool               `bson:"orderNotifications" json:"orderNotifications"`
	MarketingEmails    bool               `bson:"marketingEmails" json:"marketingEmails"`
}
