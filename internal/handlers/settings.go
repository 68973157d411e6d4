package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type settingsUpdateRequest struct {
	SiteName           *string `json:"siteName"`
	SupportEmail       *string `json:"supportEmail"`
	Currency           *string `json:"currency"`
	MaintenanceMode    *bool   `json:"maintenanceMode"`
	OrderNotifications *bool   `json:"orderNotifications"`
	MarketingEmails    *bool   `json:"marketingEmails"`
}

// GetSettings handles GET /api/settings; the singleton document is created
// with defaults on first read.
func GetSettings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /settings"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var settings models.Setting
		err := db.Collection("settings").FindOne(ctx, bson.M{}).Decode(&settings)
		if err == mongo.ErrNoDocuments {
			settings = models.Setting{
				SiteName:        "Sphynx Black",
				Currency:        "USD",
				MaintenanceMode: false,
			}
			res, insertErr := db.Collection("settings").InsertOne(ctx, settings)
			if insertErr != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				settings.ID = id
			}
			c.JSON(http.StatusOK, settings)
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, settings)
	}
}

// UpdateSettings handles PUT /api/settings (admin).
func UpdateSettings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /settings"
		defer handlePanic(c, route)

		var req settingsUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		update := bson.M{}
		if req.SiteName != nil {
			update["siteName"] = strings.TrimSpace(*req.SiteName)
		}
		if req.SupportEmail != nil {
			update["supportEmail"] = strings.TrimSpace(*req.SupportEmail)
		}
		if req.Currency != nil {
			update["currency"] = strings.TrimSpace(*req.Currency)
		}
		if req.MaintenanceMode != nil {
			update["maintenanceMode"] = *req.MaintenanceMode
		}
		if req.OrderNotifications != nil {
			update["orderNotifications"] = *req.OrderNotifications
		}
		if req.MarketingEmails != nil {
			update["marketingEmails"] = *req.MarketingEmails
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Setting
		err := db.Collection("settings").
			FindOneAndUpdate(
				ctx,
				bson.M{},
				bson.M{"$set": update},
				options.FindOneAndUpdate().
					SetReturnDocument(options.After).
					SetUpsert(true),
			).
			Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
