package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/orders"
	"backend/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type orderItemRequest struct {
	Product  string  `json:"product" binding:"required"`
	Name     string  `json:"name"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity" binding:"required"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

type createOrderRequest struct {
	OrderItems      []orderItemRequest     `json:"orderItems" binding:"required"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	// Accepted for wire compatibility, ignored: the total is recomputed
	// from resolved unit prices.
	TotalPrice float64 `json:"totalPrice"`
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		placement := orders.PlacementRequest{
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Items:           make([]orders.LineItem, 0, len(req.OrderItems)),
		}

		if userID, ok := middleware.UserIDFromContext(c); ok {
			placement.User = &userID
		}

		for _, item := range req.OrderItems {
			productID, err := primitive.ObjectIDFromHex(item.Product)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid product id")
				return
			}
			placement.Items = append(placement.Items, orders.LineItem{
				ProductID: productID,
				Size:      item.Size,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Place(c.Request.Context(), placement)
		if err != nil {
			respondPlacementError(c, route, err)
			return
		}

		if order.User != nil {
			log.Println("[ORDER] [INFO] order created for user:", order.User.Hex())
		} else {
			log.Println("[ORDER] [INFO] guest order created")
		}

		c.JSON(http.StatusCreated, order)
	}
}

// respondPlacementError maps the placement error taxonomy onto HTTP codes.
// A lost race surfaces as 409 so the client can retry with fresh stock.
func respondPlacementError(c *gin.Context, route string, err error) {
	var notFound orders.ProductNotFoundError
	if errors.As(err, &notFound) {
		respondWithError(c, http.StatusBadRequest, route, notFound.Error())
		return
	}
	var invalidSize orders.InvalidSizeError
	if errors.As(err, &invalidSize) {
		respondWithError(c, http.StatusBadRequest, route, invalidSize.Error())
		return
	}
	var insufficient orders.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondWithError(c, http.StatusBadRequest, route, insufficient.Error())
		return
	}
	var conflict orders.ConflictError
	if errors.As(err, &conflict) {
		respondWithError(c, http.StatusConflict, route, conflict.Error())
		return
	}

	switch {
	case errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidPayment):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, orders.ErrDeadlineExceeded):
		respondWithError(c, http.StatusServiceUnavailable, route, "order placement timed out")
	default:
		log.Printf("[%s] placement error: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "order failed")
	}
}

/* =========================
   QUERIES
========================= */

// GetMyOrders handles GET /api/orders/myorders for the authenticated user.
func GetMyOrders(st store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/myorders"
		defer handlePanic(c, route)

		userID, ok := middleware.UserIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		list, err := st.ListOrdersForUser(c.Request.Context(), userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "error fetching orders")
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// GetOrders handles GET /api/orders (admin); owner fields come resolved
// from the store.
func GetOrders(st store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		list, err := st.ListAllOrders(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "error fetching orders")
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// DeliverOrder handles PUT /api/orders/:id/deliver (admin). Delivering an
// already delivered order is a no-op; deliveredAt never moves.
func DeliverOrder(st store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/deliver"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		order, err := st.MarkDelivered(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}
