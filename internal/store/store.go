// Package store defines the catalog and order persistence contracts. All
// stock mutations are atomic conditional updates so the store itself
// serializes contention per product; callers never do read-then-write on
// quantities.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

var (
	// ErrNotFound covers missing products, orders, and inventory rows.
	ErrNotFound = errors.New("not found")
	// ErrStockConflict means a conditional decrement matched nothing: the
	// pool (or size row) no longer holds enough quantity.
	ErrStockConflict = errors.New("insufficient stock for conditional update")
)

// ProductFilter narrows ListProducts. Search is a case-insensitive
// substring match on the product name.
type ProductFilter struct {
	Search string
	Limit  int64
}

// DefaultProductLimit applies when a filter carries no limit.
const DefaultProductLimit int64 = 100

type ProductStore interface {
	// GetProduct resolves by object id when idOrSlug is a valid 24-hex id,
	// otherwise by slug.
	GetProduct(ctx context.Context, idOrSlug string) (models.Product, error)
	GetProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	InsertProduct(ctx context.Context, p models.Product) (models.Product, error)
	// UpdateProduct persists the full document. Both insert and update
	// rederive the stock total from the inventory rows before writing.
	UpdateProduct(ctx context.Context, p models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error

	// DecrementStock removes qty from the pool identified by size in one
	// conditional mutation. An empty size addresses the undifferentiated
	// pool of a legacy product. Returns ErrStockConflict when the condition
	// does not hold and ErrNotFound when the product is missing.
	DecrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error
	// IncrementStock is the compensating inverse of DecrementStock.
	IncrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o models.Order) (models.Order, error)
	GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ListOrdersForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	// MarkDelivered sets the delivery flag once. Delivering an already
	// delivered order is a no-op that returns the stored document with its
	// original deliveredAt.
	MarkDelivered(ctx context.Context, id primitive.ObjectID) (models.Order, error)
}
