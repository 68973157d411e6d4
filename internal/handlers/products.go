package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
	"backend/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type inventoryRowRequest struct {
	Size     string `json:"size" binding:"required"`
	Quantity int    `json:"quantity"`
}

type productCreateRequest struct {
	Name          string                `json:"name" binding:"required"`
	Slug          string                `json:"slug"`
	Description   string                `json:"description"`
	Price         float64               `json:"price" binding:"required"`
	DiscountPrice float64               `json:"discountPrice"`
	Stock         int                   `json:"stock"`
	Inventory     []inventoryRowRequest `json:"inventory"`
	Category      string                `json:"category"`
	Images        []models.ProductImage `json:"images"`
	Colors        []models.ColorOption  `json:"colors"`
	Featured      bool                  `json:"featured"`
	NewArrival    bool                  `json:"newArrival"`
	Sale          bool                  `json:"sale"`
	BestSeller    bool                  `json:"bestSeller"`
	Specs         models.Specifications `json:"specifications"`
}

type productUpdateRequest struct {
	Name          *string                `json:"name"`
	Slug          *string                `json:"slug"`
	Description   *string                `json:"description"`
	Price         *float64               `json:"price"`
	DiscountPrice *float64               `json:"discountPrice"`
	Stock         *int                   `json:"stock"`
	Inventory     *[]inventoryRowRequest `json:"inventory"`
	Category      *string                `json:"category"`
	Images        *[]models.ProductImage `json:"images"`
	Colors        *[]models.ColorOption  `json:"colors"`
	Featured      *bool                  `json:"featured"`
	NewArrival    *bool                  `json:"newArrival"`
	Sale          *bool                  `json:"sale"`
	BestSeller    *bool                  `json:"bestSeller"`
	Specs         *models.Specifications `json:"specifications"`
}

/* =========================
   PUBLIC READS
========================= */

// GetProducts handles GET /api/products with ?search and ?limit.
func GetProducts(st store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		filter := store.ProductFilter{
			Search: strings.TrimSpace(c.Query("search")),
		}
		if limitStr := strings.TrimSpace(c.Query("limit")); limitStr != "" {
			limit, err := strconv.ParseInt(limitStr, 10, 64)
			if err != nil || limit < 1 {
				respondWithError(c, http.StatusBadRequest, route, "invalid limit")
				return
			}
			filter.Limit = limit
		}

		products, err := st.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GetProduct handles GET /api/products/:idOrSlug. Admin screens pass the
// object id, the shop passes the slug; the store resolves both.
func GetProduct(st store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:idOrSlug"
		defer handlePanic(c, route)

		product, err := st.GetProduct(c.Request.Context(), c.Param("idOrSlug"))
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

/* =========================
   ADMIN MUTATIONS
========================= */

func CreateProduct(st store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer handlePanic(c, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		inventory, err := buildInventory(req.Inventory)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := validatePricing(req.Price, req.DiscountPrice); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if req.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "stock must be zero or greater")
			return
		}

		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = slugify(req.Name)
		}

		product := models.Product{
			Name:          strings.TrimSpace(req.Name),
			Slug:          slug,
			Description:   strings.TrimSpace(req.Description),
			Price:         req.Price,
			DiscountPrice: req.DiscountPrice,
			Stock:         req.Stock,
			Inventory:     inventory,
			Images:        req.Images,
			Colors:        req.Colors,
			Featured:      req.Featured,
			NewArrival:    req.NewArrival,
			Sale:          req.Sale,
			BestSeller:    req.BestSeller,
			Specs:         req.Specs,
		}

		if category := strings.TrimSpace(req.Category); category != "" {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category id")
				return
			}
			product.Category = &categoryID
		}

		created, err := st.InsertProduct(c.Request.Context(), product)
		if mongo.IsDuplicateKeyError(err) {
			respondWithError(c, http.StatusConflict, route, "slug already exists")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

func UpdateProduct(st store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		product, err := st.GetProductByID(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := applyProductUpdate(&product, req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		updated, err := st.UpdateProduct(c.Request.Context(), product)
		if mongo.IsDuplicateKeyError(err) {
			respondWithError(c, http.StatusConflict, route, "slug already exists")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteProduct(st store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = st.DeleteProduct(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product removed"})
	}
}

/* =========================
   HELPERS
========================= */

func buildInventory(rows []inventoryRowRequest) ([]models.SizeStock, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(rows))
	inventory := make([]models.SizeStock, 0, len(rows))
	for _, row := range rows {
		size := strings.TrimSpace(row.Size)
		if size == "" {
			return nil, fmt.Errorf("inventory size cannot be empty")
		}
		if row.Quantity < 0 {
			return nil, fmt.Errorf("inventory quantity for %s must be zero or greater", size)
		}
		if _, ok := seen[size]; ok {
			return nil, fmt.Errorf("duplicate inventory size: %s", size)
		}
		seen[size] = struct{}{}
		inventory = append(inventory, models.SizeStock{Size: size, Quantity: row.Quantity})
	}
	return inventory, nil
}

func validatePricing(price, discountPrice float64) error {
	if price <= 0 {
		return fmt.Errorf("invalid price")
	}
	if discountPrice < 0 {
		return fmt.Errorf("discountPrice must be zero or greater")
	}
	if discountPrice > 0 && discountPrice >= price {
		return fmt.Errorf("discountPrice must be less than price")
	}
	return nil
}

func applyProductUpdate(product *models.Product, req productUpdateRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("name required")
		}
		product.Name = name
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if slug == "" {
			return fmt.Errorf("slug cannot be empty")
		}
		product.Slug = slug
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = *req.DiscountPrice
	}
	if err := validatePricing(product.Price, product.DiscountPrice); err != nil {
		return err
	}
	if req.Inventory != nil {
		inventory, err := buildInventory(*req.Inventory)
		if err != nil {
			return err
		}
		product.Inventory = inventory
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fmt.Errorf("stock must be zero or greater")
		}
		// Meaningful for legacy products only; a sized product gets its
		// total rederived from inventory on write.
		product.Stock = *req.Stock
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			product.Category = nil
		} else {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				return fmt.Errorf("invalid category id")
			}
			product.Category = &categoryID
		}
	}
	if req.Images != nil {
		product.Images = *req.Images
	}
	if req.Colors != nil {
		product.Colors = *req.Colors
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.NewArrival != nil {
		product.NewArrival = *req.NewArrival
	}
	if req.Sale != nil {
		product.Sale = *req.Sale
	}
	if req.BestSeller != nil {
		product.BestSeller = *req.BestSeller
	}
	if req.Specs != nil {
		product.Specs = *req.Specs
	}
	return nil
}
