package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is a point-in-time snapshot of the purchased product; later
// catalog edits never change a historical order.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Size     string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
}

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// OrderOwner carries the resolved display fields on admin listings.
type OrderOwner struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Order defines the persisted order document. User is nil for guest orders.
type Order struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User             *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Items            []OrderItem         `bson:"orderItems" json:"orderItems"`
	ShippingAddress  ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod    string              `bson:"paymentMethod" json:"paymentMethod"`
	TotalPrice       float64             `bson:"totalPrice" json:"totalPrice"`
	IsPaid           bool                `bson:"isPaid" json:"isPaid"`
	PaidAt           *time.Time          `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaymentSimulated bool                `bson:"paymentSimulated" json:"paymentSimulated"`
	IsDelivered      bool                `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt      *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	Owner            *OrderOwner         `bson:"-" json:"owner,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
}
