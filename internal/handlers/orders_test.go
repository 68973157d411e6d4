package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/orders"
	"backend/internal/store"
)

const testSecret = "test-secret"

func newOrderRouter(st *store.MemoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := orders.NewService(st, st, 5*time.Second)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/orders", middleware.OptionalUser(testSecret), CreateOrder(svc))
	api.GET("/orders/myorders", middleware.UserAuth(testSecret), GetMyOrders(st))
	api.GET("/orders", GetOrders(st))
	api.PUT("/orders/:id/deliver", DeliverOrder(st))
	return r
}

func seedHoodie(t *testing.T, st *store.MemoryStore, qty int) models.Product {
	t.Helper()
	p, err := st.InsertProduct(context.Background(), models.Product{
		Name:      "Oversize Hoodie",
		Slug:      "oversize-hoodie",
		Price:     50,
		Inventory: []models.SizeStock{{Size: "M", Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func orderBody(productID string, size string, qty int) []byte {
	return []byte(fmt.Sprintf(`{
		"orderItems": [{"product": %q, "size": %q, "quantity": %d, "price": 1}],
		"shippingAddress": {"address": "1 High St", "city": "London", "postalCode": "N1", "country": "UK"},
		"paymentMethod": "card",
		"totalPrice": 1
	}`, productID, size, qty))
}

func TestCreateOrderGuest(t *testing.T) {
	st := store.NewMemoryStore()
	r := newOrderRouter(st)
	hoodie := seedHoodie(t, st, 5)

	req := httptest.NewRequest("POST", "/api/orders", bytes.NewReader(orderBody(hoodie.ID.Hex(), "M", 2)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if order.User != nil {
		t.Fatal("guest order must carry no user")
	}
	if !order.IsPaid || !order.PaymentSimulated {
		t.Fatal("expected isPaid and paymentSimulated set")
	}
	// The wire total (1) is ignored; the server recomputes from the catalog.
	if order.TotalPrice != 100 {
		t.Fatalf("expected recomputed total 100, got %v", order.TotalPrice)
	}

	left, _ := st.GetProductByID(context.Background(), hoodie.ID)
	if left.Stock != 3 {
		t.Fatalf("expected stock 3 after order, got %d", left.Stock)
	}
}

func TestCreateOrderAttachesAuthenticatedUser(t *testing.T) {
	st := store.NewMemoryStore()
	r := newOrderRouter(st)
	hoodie := seedHoodie(t, st, 5)

	user := models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"}
	token, err := signAccessToken(user, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/orders", bytes.NewReader(orderBody(hoodie.ID.Hex(), "M", 1)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	listReq := httptest.NewRequest("GET", "/api/orders/myorders", nil)
	listReq.Header.Set("Authorization", "Bearer "+token)
	listW := httptest.NewRecorder()
	r.ServeHTTP(listW, listReq)

	if listW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", listW.Code, listW.Body.String())
	}
	var mine []models.Order
	if err := json.Unmarshal(listW.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(mine) != 1 || mine[0].User == nil || *mine[0].User != user.ID {
		t.Fatalf("expected one order owned by %s, got %+v", user.ID.Hex(), mine)
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	st := store.NewMemoryStore()
	r := newOrderRouter(st)
	hoodie := seedHoodie(t, st, 2)

	cases := []struct {
		name string
		body []byte
		want int
	}{
		{"malformed json", []byte(`{"orderItems": [`), http.StatusBadRequest},
		{"no items", []byte(`{"orderItems": [], "shippingAddress": {"address":"a","city":"b"}, "paymentMethod": "card"}`), http.StatusBadRequest},
		{"bad product id", orderBody("not-a-hex-id", "M", 1), http.StatusBadRequest},
		{"unknown product", orderBody("aaaaaaaaaaaaaaaaaaaaaaaa", "M", 1), http.StatusBadRequest},
		{"invalid size", orderBody(hoodie.ID.Hex(), "XL", 1), http.StatusBadRequest},
		{"insufficient stock", orderBody(hoodie.ID.Hex(), "M", 3), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/orders", bytes.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}

	left, _ := st.GetProductByID(context.Background(), hoodie.ID)
	if left.Stock != 2 {
		t.Fatalf("rejected orders must not touch stock, got %d", left.Stock)
	}
}

func TestMyOrdersRequiresToken(t *testing.T) {
	r := newOrderRouter(store.NewMemoryStore())

	req := httptest.NewRequest("GET", "/api/orders/myorders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestDeliverOrder(t *testing.T) {
	st := store.NewMemoryStore()
	r := newOrderRouter(st)

	order, err := st.InsertOrder(context.Background(), models.Order{
		Items: []models.OrderItem{{Name: "Oversize Hoodie", Quantity: 1, Price: 50}},
	})
	if err != nil {
		t.Fatal(err)
	}

	deliver := func() models.Order {
		req := httptest.NewRequest("PUT", "/api/orders/"+order.ID.Hex()+"/deliver", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var got models.Order
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return got
	}

	first := deliver()
	if !first.IsDelivered || first.DeliveredAt == nil {
		t.Fatal("expected delivered order with timestamp")
	}

	second := deliver()
	if !second.DeliveredAt.Equal(*first.DeliveredAt) {
		t.Fatal("repeat delivery must not move deliveredAt")
	}

	req := httptest.NewRequest("PUT", "/api/orders/aaaaaaaaaaaaaaaaaaaaaaaa/deliver", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", w.Code)
	}

	req = httptest.NewRequest("PUT", "/api/orders/nope/deliver", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}
