package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/store"
)

func newProductRouter(st *store.MemoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/products", GetProducts(st))
	api.GET("/products/:idOrSlug", GetProduct(st))
	api.POST("/products", CreateProduct(st))
	api.PUT("/products/:id", UpdateProduct(st))
	api.DELETE("/products/:id", DeleteProduct(st))
	return r
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Black Hoodie":        "black-hoodie",
		"  Café & Croissant ": "caf-croissant",
		"UPPER---case":        "upper-case",
		"2024 New Arrivals!":  "2024-new-arrivals",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildInventoryRejectsBadRows(t *testing.T) {
	if _, err := buildInventory([]inventoryRowRequest{{Size: " ", Quantity: 1}}); err == nil {
		t.Fatal("expected error for blank size")
	}
	if _, err := buildInventory([]inventoryRowRequest{{Size: "M", Quantity: -1}}); err == nil {
		t.Fatal("expected error for negative quantity")
	}
	if _, err := buildInventory([]inventoryRowRequest{
		{Size: "M", Quantity: 1},
		{Size: "M", Quantity: 2},
	}); err == nil {
		t.Fatal("expected error for duplicate size")
	}

	rows, err := buildInventory([]inventoryRowRequest{{Size: " M ", Quantity: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Size != "M" || rows[0].Quantity != 3 {
		t.Fatalf("expected trimmed row M/3, got %+v", rows[0])
	}
}

func TestValidatePricing(t *testing.T) {
	if err := validatePricing(0, 0); err == nil {
		t.Fatal("expected error for zero price")
	}
	if err := validatePricing(10, -1); err == nil {
		t.Fatal("expected error for negative discount")
	}
	if err := validatePricing(10, 10); err == nil {
		t.Fatal("expected error for discount >= price")
	}
	if err := validatePricing(10, 7.5); err != nil {
		t.Fatalf("expected valid pricing, got %v", err)
	}
}

func TestCreateProductDerivesSlugAndStock(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st)

	body := []byte(`{
		"name": "Black Hoodie",
		"price": 59.90,
		"discountPrice": 44.90,
		"inventory": [{"size": "M", "quantity": 4}, {"size": "L", "quantity": 6}]
	}`)

	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Slug != "black-hoodie" {
		t.Fatalf("expected derived slug, got %q", created.Slug)
	}
	if created.Stock != 10 {
		t.Fatalf("expected stock 10 derived from inventory, got %d", created.Stock)
	}
	if len(created.Sizes) != 2 {
		t.Fatalf("expected legacy sizes list kept in sync, got %v", created.Sizes)
	}
}

func TestCreateProductRejectsBadPricing(t *testing.T) {
	r := newProductRouter(store.NewMemoryStore())

	body := []byte(`{"name": "Hoodie", "price": 10, "discountPrice": 20}`)
	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetProductByIDOrSlug(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st)

	p, err := st.InsertProduct(context.Background(), models.Product{
		Name: "Black Hoodie", Slug: "black-hoodie", Price: 59.90,
		Inventory: []models.SizeStock{{Size: "M", Quantity: 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{
		"/api/products/black-hoodie",
		"/api/products/" + p.ID.Hex(),
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/products/no-such-slug", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetProductsSearchAndLimit(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st)

	for _, name := range []string{"Black Hoodie", "White Hoodie", "Plain Tee"} {
		if _, err := st.InsertProduct(context.Background(), models.Product{
			Name: name, Slug: slugify(name), Price: 10,
		}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest("GET", "/api/products?search=hoodie", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("expected 2 hoodies, got %d", len(resp.Products))
	}

	req = httptest.NewRequest("GET", "/api/products?limit=1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("expected 1 product with limit=1, got %d", len(resp.Products))
	}

	req = httptest.NewRequest("GET", "/api/products?limit=0", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=0, got %d", w.Code)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st)

	p, err := st.InsertProduct(context.Background(), models.Product{
		Name: "Black Hoodie", Slug: "black-hoodie", Price: 59.90,
		Inventory: []models.SizeStock{{Size: "M", Quantity: 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	body := []byte(`{"discountPrice": 39.90, "inventory": [{"size": "M", "quantity": 1}]}`)
	req := httptest.NewRequest("PUT", "/api/products/"+p.ID.Hex(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.DiscountPrice != 39.90 || updated.Name != "Black Hoodie" {
		t.Fatalf("expected discount updated and name untouched, got %+v", updated)
	}
	if updated.Stock != 1 {
		t.Fatalf("expected stock rederived to 1, got %d", updated.Stock)
	}

	req = httptest.NewRequest("PUT", "/api/products/aaaaaaaaaaaaaaaaaaaaaaaa", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", w.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st)

	p, err := st.InsertProduct(context.Background(), models.Product{
		Name: "Black Hoodie", Slug: "black-hoodie", Price: 59.90,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("DELETE", "/api/products/"+p.ID.Hex(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/products/black-hoodie", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}
