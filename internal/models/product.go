package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SizeStock is one per-size inventory row. Sizes are unique within a product.
type SizeStock struct {
	Size     string `bson:"size" json:"size"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// ProductImage keeps the stored URL opaque; uploads live behind /api/upload.
type ProductImage struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt,omitempty" json:"alt,omitempty"`
}

type ColorOption struct {
	Name string `bson:"name" json:"name"`
	Code string `bson:"code,omitempty" json:"code,omitempty"`
}

type Specifications struct {
	Material string `bson:"material,omitempty" json:"material,omitempty"`
	Origin   string `bson:"origin,omitempty" json:"origin,omitempty"`
	Care     string `bson:"care,omitempty" json:"care,omitempty"`
}

// InventoryKind makes the legacy-vs-sized branch explicit instead of
// callers probing len(Inventory).
type InventoryKind int

const (
	// UndifferentiatedStock means Stock is a single pool with no size rows.
	UndifferentiatedStock InventoryKind = iota
	// SizedInventory means Stock is derived from the per-size rows.
	SizedInventory
)

type Product struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"name" json:"name"`
	Slug          string              `bson:"slug" json:"slug"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	Price         float64             `bson:"price" json:"price"`
	DiscountPrice float64             `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`
	Stock         int                 `bson:"stock" json:"stock"`
	Inventory     []SizeStock         `bson:"inventory" json:"inventory"`
	Category      *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Images        []ProductImage      `bson:"images" json:"images"`
	Sizes         []string            `bson:"sizes" json:"sizes"`
	Colors        []ColorOption       `bson:"colors,omitempty" json:"colors,omitempty"`
	Featured      bool                `bson:"featured" json:"featured"`
	NewArrival    bool                `bson:"newArrival" json:"newArrival"`
	Sale          bool                `bson:"sale" json:"sale"`
	BestSeller    bool                `bson:"bestSeller" json:"bestSeller"`
	Specs         Specifications      `bson:"specifications,omitempty" json:"specifications,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// InventoryKind reports which pool a decrement draws from.
func (p *Product) InventoryKind() InventoryKind {
	if len(p.Inventory) > 0 {
		return SizedInventory
	}
	return UndifferentiatedStock
}

// SizeRow returns the inventory row for a size, if present.
func (p *Product) SizeRow(size string) (SizeStock, bool) {
	for _, row := range p.Inventory {
		if row.Size == size {
			return row, true
		}
	}
	return SizeStock{}, false
}

// EffectiveUnitPrice returns the discount price when it undercuts the base
// price, otherwise the base price.
func (p *Product) EffectiveUnitPrice() float64 {
	if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
		return p.DiscountPrice
	}
	return p.Price
}

// RecalculateStock rederives the total stock and the sizes list from the
// inventory rows. Must run before every persist of a sized product; a
// legacy product keeps Stock as its single pool and its sizes list as
// backward-compat display data.
func (p *Product) RecalculateStock() {
	if p.InventoryKind() == UndifferentiatedStock {
		// Persist a real empty array: a nil slice marshals to BSON null,
		// which the conditional decrement filter (an array match) never hits.
		p.Inventory = []SizeStock{}
		return
	}

	total := 0
	sizes := make([]string, 0, len(p.Inventory))
	for _, row := range p.Inventory {
		total += row.Quantity
		if row.Quantity > 0 {
			sizes = append(sizes, row.Size)
		}
	}
	p.Stock = total
	p.Sizes = sizes
}
