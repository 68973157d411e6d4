package orders

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Placement failures are typed so handlers can map them to responses and
// callers can tell a terminal rejection from a lost race.

var (
	ErrNoItems          = errors.New("at least one item is required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrDeadlineExceeded = errors.New("order placement timed out")
)

type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID.Hex())
}

type InvalidSizeError struct {
	ProductID primitive.ObjectID
	Name      string
	Size      string
}

func (e InvalidSizeError) Error() string {
	return fmt.Sprintf("size %s is invalid for %s", e.Size, e.Name)
}

type InsufficientStockError struct {
	ProductID primitive.ObjectID
	Name      string
	Size      string
	Available int
	Requested int
}

func (e InsufficientStockError) Error() string {
	if e.Size != "" {
		return fmt.Sprintf("insufficient stock for %s (size %s)", e.Name, e.Size)
	}
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}

// ConflictError means validation passed but a concurrent order won the
// conditional decrement; any partial decrements were rolled back.
type ConflictError struct {
	ProductID primitive.ObjectID
	Name      string
	Size      string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("lost stock race for %s", e.Name)
}
