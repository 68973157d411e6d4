package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"backend/internal/models"
)

func seedSizedProduct(t *testing.T, s *MemoryStore, rows ...models.SizeStock) models.Product {
	t.Helper()
	p, err := s.InsertProduct(context.Background(), models.Product{
		Name:      "Oversize Hoodie",
		Slug:      "oversize-hoodie",
		Price:     49.90,
		Inventory: rows,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestGetProductByIDOrSlug(t *testing.T) {
	s := NewMemoryStore()
	p := seedSizedProduct(t, s, models.SizeStock{Size: "M", Quantity: 3})

	byID, err := s.GetProduct(context.Background(), p.ID.Hex())
	if err != nil || byID.ID != p.ID {
		t.Fatalf("lookup by hex id failed: %v", err)
	}

	bySlug, err := s.GetProduct(context.Background(), "oversize-hoodie")
	if err != nil || bySlug.ID != p.ID {
		t.Fatalf("lookup by slug failed: %v", err)
	}

	if _, err := s.GetProduct(context.Background(), "no-such-slug"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecrementStockSized(t *testing.T) {
	s := NewMemoryStore()
	p := seedSizedProduct(t, s,
		models.SizeStock{Size: "M", Quantity: 5},
		models.SizeStock{Size: "L", Quantity: 2},
	)

	if err := s.DecrementStock(context.Background(), p.ID, "M", 5); err != nil {
		t.Fatalf("decrement to zero should succeed: %v", err)
	}

	got, _ := s.GetProductByID(context.Background(), p.ID)
	if row, _ := got.SizeRow("M"); row.Quantity != 0 {
		t.Fatalf("expected M quantity 0, got %d", row.Quantity)
	}
	if got.Stock != 2 {
		t.Fatalf("expected total stock 2 after decrement, got %d", got.Stock)
	}

	if err := s.DecrementStock(context.Background(), p.ID, "M", 1); !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected ErrStockConflict on empty row, got %v", err)
	}
	if err := s.DecrementStock(context.Background(), p.ID, "XL", 1); !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected ErrStockConflict for unknown size, got %v", err)
	}
	if err := s.DecrementStock(context.Background(), primitive.NewObjectID(), "M", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing product, got %v", err)
	}
}

func TestDecrementStockLegacyPool(t *testing.T) {
	s := NewMemoryStore()
	p, err := s.InsertProduct(context.Background(), models.Product{
		Name:  "Plain Tee",
		Slug:  "plain-tee",
		Price: 9.90,
		Stock: 4,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if err := s.DecrementStock(context.Background(), p.ID, "", 3); err != nil {
		t.Fatalf("legacy decrement should succeed: %v", err)
	}
	if err := s.DecrementStock(context.Background(), p.ID, "", 2); !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected ErrStockConflict when pool is short, got %v", err)
	}

	got, _ := s.GetProductByID(context.Background(), p.ID)
	if got.Stock != 1 {
		t.Fatalf("expected stock 1, got %d", got.Stock)
	}
}

func TestIncrementStockRestoresInvariant(t *testing.T) {
	s := NewMemoryStore()
	p := seedSizedProduct(t, s, models.SizeStock{Size: "M", Quantity: 5})

	if err := s.DecrementStock(context.Background(), p.ID, "M", 4); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrementStock(context.Background(), p.ID, "M", 4); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetProductByID(context.Background(), p.ID)
	row, _ := got.SizeRow("M")
	if row.Quantity != 5 || got.Stock != 5 {
		t.Fatalf("expected row and total back at 5, got row=%d stock=%d", row.Quantity, got.Stock)
	}
}

// Many goroutines race for a pool of 10 units, 3 at a time. However the
// race resolves, the store must never hand out more than it has.
func TestConcurrentDecrementNeverOversells(t *testing.T) {
	s := NewMemoryStore()
	p := seedSizedProduct(t, s, models.SizeStock{Size: "M", Quantity: 10})

	var g errgroup.Group
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			results <- s.DecrementStock(context.Background(), p.ID, "M", 3)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrStockConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 3 {
		t.Fatalf("expected exactly 3 successful decrements of 3 from 10, got %d", wins)
	}

	got, _ := s.GetProductByID(context.Background(), p.ID)
	if got.Stock != 1 {
		t.Fatalf("expected 1 unit left, got %d", got.Stock)
	}
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	order, err := s.InsertOrder(context.Background(), models.Order{
		Items: []models.OrderItem{{Name: "Plain Tee", Quantity: 1, Price: 9.90}},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	first, err := s.MarkDelivered(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if !first.IsDelivered || first.DeliveredAt == nil {
		t.Fatal("expected order marked delivered with timestamp")
	}

	second, err := s.MarkDelivered(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("second deliver: %v", err)
	}
	if !second.DeliveredAt.Equal(*first.DeliveredAt) {
		t.Fatal("deliveredAt must not move on repeat delivery")
	}

	if _, err := s.MarkDelivered(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}
}

func TestListOrdersForUserFiltersGuests(t *testing.T) {
	s := NewMemoryStore()
	userID := primitive.NewObjectID()

	if _, err := s.InsertOrder(context.Background(), models.Order{User: &userID}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertOrder(context.Background(), models.Order{}); err != nil {
		t.Fatal(err)
	}

	mine, err := s.ListOrdersForUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 order for user, got %d", len(mine))
	}

	all, err := s.ListAllOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders total, got %d", len(all))
	}
}
