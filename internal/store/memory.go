package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// MemoryStore is an in-process ProductStore/OrderStore with the same
// conditional-update contract as the Mongo implementation. Handler and
// service tests run against it so they need no mongod.
type MemoryStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
	orders   map[primitive.ObjectID]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[primitive.ObjectID]models.Product),
		orders:   make(map[primitive.ObjectID]models.Order),
	}
}

func cloneProduct(p models.Product) models.Product {
	out := p
	out.Inventory = append([]models.SizeStock(nil), p.Inventory...)
	out.Images = append([]models.ProductImage(nil), p.Images...)
	out.Sizes = append([]string(nil), p.Sizes...)
	out.Colors = append([]models.ColorOption(nil), p.Colors...)
	return out
}

func cloneOrder(o models.Order) models.Order {
	out := o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	return out
}

func (s *MemoryStore) GetProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if objectIDPattern.MatchString(idOrSlug) {
		if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
			if p, ok := s.products[id]; ok {
				return cloneProduct(p), nil
			}
			return models.Product{}, ErrNotFound
		}
	}
	for _, p := range s.products {
		if p.Slug == idOrSlug {
			return cloneProduct(p), nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (s *MemoryStore) GetProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *MemoryStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}

	matched := make([]models.Product, 0)
	search := strings.ToLower(filter.Search)
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.RecalculateStock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return models.Product{}, ErrNotFound
	}
	p.UpdatedAt = time.Now()
	p.RecalculateStock()
	s.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) DecrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrNotFound
	}

	if size == "" {
		if len(p.Inventory) != 0 || p.Stock < qty {
			return ErrStockConflict
		}
		p.Stock -= qty
		s.products[id] = p
		return nil
	}

	for i, row := range p.Inventory {
		if row.Size != size {
			continue
		}
		if row.Quantity < qty {
			return ErrStockConflict
		}
		p.Inventory[i].Quantity -= qty
		p.Stock -= qty
		s.products[id] = p
		return nil
	}
	return ErrStockConflict
}

func (s *MemoryStore) IncrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrNotFound
	}

	if size == "" {
		p.Stock += qty
		s.products[id] = p
		return nil
	}
	for i, row := range p.Inventory {
		if row.Size == size {
			p.Inventory[i].Quantity += qty
			p.Stock += qty
			s.products[id] = p
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) InsertOrder(ctx context.Context, o models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.orders[o.ID] = cloneOrder(o)
	return cloneOrder(o), nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) ListOrdersForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.User != nil && *o.User == userID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *MemoryStore) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, cloneOrder(o))
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *MemoryStore) MarkDelivered(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	if o.IsDelivered {
		return cloneOrder(o), nil
	}
	now := time.Now()
	o.IsDelivered = true
	o.DeliveredAt = &now
	s.orders[id] = o
	return cloneOrder(o), nil
}

func sortOrdersNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
