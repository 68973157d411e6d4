// Package orders implements order placement: validate every line item
// against the catalog, then commit all inventory decrements and the order
// record as one all-or-nothing operation.
package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/store"
)

// LineItem is one requested product+size+quantity. Name/price/image on the
// request are ignored; snapshots are taken from the resolved product.
type LineItem struct {
	ProductID primitive.ObjectID
	Size      string
	Quantity  int
}

// PlacementRequest is a proposed order. TotalPrice from the client is
// advisory only; the service recomputes it from resolved unit prices.
type PlacementRequest struct {
	User            *primitive.ObjectID
	Items           []LineItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

var paymentMethods = map[string]struct{}{
	"card":   {},
	"cash":   {},
	"paypal": {},
}

type Service struct {
	products store.ProductStore
	orders   store.OrderStore
	timeout  time.Duration
}

func NewService(products store.ProductStore, orderStore store.OrderStore, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{products: products, orders: orderStore, timeout: timeout}
}

// Place runs the request through RECEIVED → VALIDATED → COMMITTED. Any
// failure leaves inventory with zero net change and creates no order.
func (s *Service) Place(ctx context.Context, req PlacementRequest) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := validateShape(req); err != nil {
		return models.Order{}, err
	}

	resolved, err := s.resolveAndValidate(ctx, req.Items)
	if err != nil {
		return models.Order{}, err
	}

	items, err := s.commit(ctx, req.Items, resolved)
	if err != nil {
		return models.Order{}, err
	}

	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	now := time.Now()
	order := models.Order{
		User:            req.User,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      total,
		// Payment is simulated: no gateway exists, so orders are marked
		// paid at creation and flagged so a real integration can tell the
		// difference later.
		IsPaid:           true,
		PaidAt:           &now,
		PaymentSimulated: true,
		CreatedAt:        now,
	}

	created, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		// Inventory is already decremented; reverse it so a failed insert
		// cannot strand stock.
		s.rollback(req.Items, len(req.Items))
		return models.Order{}, s.mapDeadline(ctx, err)
	}

	return created, nil
}

func validateShape(req PlacementRequest) error {
	if len(req.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	if _, ok := paymentMethods[req.PaymentMethod]; !ok {
		return ErrInvalidPayment
	}
	return nil
}

// resolveAndValidate loads every product and checks every pool before any
// decrement happens, so an order cannot partially succeed because a later
// line was doomed from the start.
func (s *Service) resolveAndValidate(ctx context.Context, items []LineItem) ([]models.Product, error) {
	resolved := make([]models.Product, 0, len(items))

	for _, item := range items {
		product, err := s.products.GetProductByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ProductNotFoundError{ProductID: item.ProductID}
		}
		if err != nil {
			return nil, s.mapDeadline(ctx, err)
		}

		switch product.InventoryKind() {
		case models.SizedInventory:
			row, ok := product.SizeRow(item.Size)
			if !ok {
				return nil, InvalidSizeError{ProductID: product.ID, Name: product.Name, Size: item.Size}
			}
			if row.Quantity < item.Quantity {
				return nil, InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Size:      item.Size,
					Available: row.Quantity,
					Requested: item.Quantity,
				}
			}
		case models.UndifferentiatedStock:
			if product.Stock < item.Quantity {
				return nil, InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}
		}

		resolved = append(resolved, product)
	}

	return resolved, nil
}

// commit decrements each line's pool through the store's conditional
// update. Validation has already passed, so a miss here means a concurrent
// order took the stock in between; everything decremented so far is rolled
// back and the whole request fails.
func (s *Service) commit(ctx context.Context, items []LineItem, resolved []models.Product) ([]models.OrderItem, error) {
	snapshots := make([]models.OrderItem, 0, len(items))

	for i, item := range items {
		product := resolved[i]
		size := poolSize(product, item.Size)

		if err := s.products.DecrementStock(ctx, product.ID, size, item.Quantity); err != nil {
			s.rollback(items, i)
			if errors.Is(err, store.ErrStockConflict) {
				return nil, ConflictError{ProductID: product.ID, Name: product.Name, Size: item.Size}
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil, ProductNotFoundError{ProductID: product.ID}
			}
			return nil, s.mapDeadline(ctx, err)
		}

		snapshots = append(snapshots, models.OrderItem{
			Product:  product.ID,
			Name:     product.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Price:    product.EffectiveUnitPrice(),
			Image:    primaryImage(product),
		})
	}

	return snapshots, nil
}

// rollback reverses the first n decrements. It runs on a fresh context so a
// request deadline that expired mid-commit cannot also doom the repair.
func (s *Service) rollback(items []LineItem, n int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	for i := 0; i < n; i++ {
		item := items[i]
		product, err := s.products.GetProductByID(ctx, item.ProductID)
		size := item.Size
		if err == nil {
			size = poolSize(product, item.Size)
		}
		if err := s.products.IncrementStock(ctx, item.ProductID, size, item.Quantity); err != nil {
			log.Printf("[ORDER] [ERROR] rollback failed for product %s: %v", item.ProductID.Hex(), err)
		}
	}
}

// poolSize maps the requested size onto the pool the store addresses: a
// legacy product has no size rows, so its single pool is addressed with "".
func poolSize(product models.Product, requested string) string {
	if product.InventoryKind() == models.UndifferentiatedStock {
		return ""
	}
	return requested
}

func (s *Service) mapDeadline(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrDeadlineExceeded
	}
	return err
}

func primaryImage(p models.Product) string {
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
