package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrNegativePrice   = errors.New("price cannot be negative")
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	ErrNegativeWeight  = errors.New("weight must be a non-negative number")
	ErrExpiryNotFuture = errors.New("date must be in the future")
	ErrProductExpired  = errors.New("product has expired")
)

type ProductKind string

const (
	KindStandard            ProductKind = "non_perishable_non_shippable"
	KindShippable           ProductKind = "non_perishable_shippable"
	KindPerishable          ProductKind = "perishable_non_shippable"
	KindPerishableShippable ProductKind = "perishable_shippable"
)

// Perishable marks a product that stops being sellable after ExpiresAt.
type Perishable struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the product is expired right now.
func (p Perishable) IsExpired() bool {
	return p.ExpiredAt(time.Now())
}

func (p Perishable) ExpiredAt(t time.Time) bool {
	return t.After(p.ExpiresAt)
}

// Shippable carries the weight, in kilograms, of a single unit.
type Shippable struct {
	Weight decimal.Decimal `json:"weight"`
}

// Product is a sellable good. Quantity is the available stock and is only
// changed through the inventory store that owns the product.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	perishable *Perishable
	shippable  *Shippable
}

type ProductOption func(*Product)

func WithExpiry(expiresAt time.Time) ProductOption {
	return func(p *Product) {
		p.perishable = &Perishable{ExpiresAt: expiresAt}
	}
}

func WithWeight(weight decimal.Decimal) ProductOption {
	return func(p *Product) {
		p.shippable = &Shippable{Weight: weight}
	}
}

// NewProduct validates every field and returns a product with a fresh ID.
// No product is returned when validation fails.
func NewProduct(name string, price decimal.Decimal, quantity int, opts ...ProductOption) (*Product, error) {
	p := &Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.validate(time.Now()); err != nil {
		return nil, err
	}

	p.ID = uuid.New().String()
	return p, nil
}

func NewNonShippableProduct(name string, price decimal.Decimal, quantity int) (*Product, error) {
	return NewProduct(name, price, quantity)
}

func NewShippableProduct(name string, price decimal.Decimal, quantity int, weight decimal.Decimal) (*Product, error) {
	return NewProduct(name, price, quantity, WithWeight(weight))
}

func NewPerishableShippableProduct(name string, price decimal.Decimal, quantity int, expiresAt time.Time, weight decimal.Decimal) (*Product, error) {
	return NewProduct(name, price, quantity, WithWeight(weight), WithExpiry(expiresAt))
}

func (p *Product) validate(now time.Time) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if p.shippable != nil && p.shippable.Weight.IsNegative() {
		return ErrNegativeWeight
	}
	if p.perishable != nil && !p.perishable.ExpiresAt.After(now) {
		return ErrExpiryNotFuture
	}
	return nil
}

func (p *Product) Perishable() (Perishable, bool) {
	if p.perishable == nil {
		return Perishable{}, false
	}
	return *p.perishable, true
}

func (p *Product) Shippable() (Shippable, bool) {
	if p.shippable == nil {
		return Shippable{}, false
	}
	return *p.shippable, true
}

func (p *Product) Kind() ProductKind {
	switch {
	case p.perishable != nil && p.shippable != nil:
		return KindPerishableShippable
	case p.perishable != nil:
		return KindPerishable
	case p.shippable != nil:
		return KindShippable
	default:
		return KindStandard
	}
}
