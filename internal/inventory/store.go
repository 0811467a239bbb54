package inventory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateProduct  = errors.New("product already registered")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
)

// StockChange is a quantity to move for one product.
type StockChange struct {
	ProductID string
	Quantity  int
}

// Store owns every product and is the only place stock changes.
// Callers refer to products by ID and always read the current state.
type Store struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	order    []string
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]*domain.Product),
	}
}

func (s *Store) Add(products ...*domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		_, batched := seen[p.ID]
		if _, exists := s.products[p.ID]; exists || batched {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	for _, p := range products {
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return nil
}

// GetStock returns a copy of the product as it is now.
func (s *Store) GetStock(productID string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[productID]
	if !exists {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return *p, nil
}

// ListAll returns copies of every product in registration order.
func (s *Store) ListAll() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, *s.products[id])
	}
	return items
}

// Deduct removes stock for every change or for none of them.
func (s *Store) Deduct(changes []StockChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		if c.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		p, exists := s.products[c.ProductID]
		if !exists {
			return fmt.Errorf("%w: %s", ErrProductNotFound, c.ProductID)
		}
		if p.Quantity < c.Quantity {
			return fmt.Errorf("%w for %s: available %d, requested %d", ErrInsufficientStock, p.Name, p.Quantity, c.Quantity)
		}
	}

	for _, c := range changes {
		s.products[c.ProductID].Quantity -= c.Quantity
	}
	return nil
}

func (s *Store) Restock(changes []StockChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		if c.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if _, exists := s.products[c.ProductID]; !exists {
			return fmt.Errorf("%w: %s", ErrProductNotFound, c.ProductID)
		}
	}

	for _, c := range changes {
		s.products[c.ProductID].Quantity += c.Quantity
	}
	return nil
}
