package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestRecalculateStockSumsInventory(t *testing.T) {
	p := Product{
		Stock: 99,
		Inventory: []SizeStock{
			{Size: "S", Quantity: 2},
			{Size: "M", Quantity: 0},
			{Size: "L", Quantity: 5},
		},
	}

	p.RecalculateStock()

	if p.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", p.Stock)
	}
	if len(p.Sizes) != 2 || p.Sizes[0] != "S" || p.Sizes[1] != "L" {
		t.Fatalf("expected sizes [S L] (only rows with stock), got %v", p.Sizes)
	}
}

func TestRecalculateStockLegacyKeepsPool(t *testing.T) {
	p := Product{Stock: 5, Sizes: []string{"S", "M"}}

	p.RecalculateStock()

	if p.Stock != 5 {
		t.Fatalf("expected legacy stock 5 to survive, got %d", p.Stock)
	}
	if len(p.Sizes) != 2 {
		t.Fatalf("expected legacy sizes list preserved, got %v", p.Sizes)
	}
	if p.Inventory == nil {
		t.Fatal("expected inventory normalized to an empty slice for persistence")
	}
}

// The conditional decrement for pool products filters on inventory being an
// empty array. A nil slice marshals to BSON null and would never match, so
// the persist hook must leave a real array behind.
func TestLegacyProductMarshalsInventoryAsArray(t *testing.T) {
	p := Product{Name: "Plain Tee", Slug: "plain-tee", Price: 9.90, Stock: 4}
	p.RecalculateStock()

	raw, err := bson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	field := bson.Raw(raw).Lookup("inventory")
	if field.Type != bson.TypeArray {
		t.Fatalf("inventory stored as %s, want array", field.Type)
	}
	if elems, err := field.Array().Elements(); err != nil || len(elems) != 0 {
		t.Fatalf("expected empty inventory array, got %v (err %v)", elems, err)
	}
}

func TestInventoryKind(t *testing.T) {
	legacy := Product{Stock: 3}
	if legacy.InventoryKind() != UndifferentiatedStock {
		t.Fatal("expected empty inventory to mean undifferentiated stock")
	}

	sized := Product{Inventory: []SizeStock{{Size: "M", Quantity: 1}}}
	if sized.InventoryKind() != SizedInventory {
		t.Fatal("expected non-empty inventory to mean sized inventory")
	}
}

func TestSizeRow(t *testing.T) {
	p := Product{Inventory: []SizeStock{{Size: "S", Quantity: 2}, {Size: "M", Quantity: 0}}}

	row, ok := p.SizeRow("M")
	if !ok || row.Quantity != 0 {
		t.Fatalf("expected M row with quantity 0, got %+v ok=%v", row, ok)
	}

	if _, ok := p.SizeRow("XL"); ok {
		t.Fatal("expected XL to be absent")
	}
}

func TestEffectiveUnitPriceUsesDiscountWhenLower(t *testing.T) {
	p := Product{Price: 100, DiscountPrice: 75}
	if got := p.EffectiveUnitPrice(); got != 75 {
		t.Fatalf("expected discount price 75, got %v", got)
	}

	p = Product{Price: 100}
	if got := p.EffectiveUnitPrice(); got != 100 {
		t.Fatalf("expected base price 100 without discount, got %v", got)
	}

	p = Product{Price: 100, DiscountPrice: 120}
	if got := p.EffectiveUnitPrice(); got != 100 {
		t.Fatalf("expected base price 100 when discount exceeds it, got %v", got)
	}
}
