package cart

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/inventory"
	"github.com/joao-fontenele/checkout-otel-demo/internal/shipping"
)

var (
	ErrEmpty           = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Item is a cart entry. It holds the product ID, never the product itself.
type Item struct {
	ProductID string
	Quantity  int
}

func NewItem(productID string, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{ProductID: productID, Quantity: quantity}, nil
}

// Line is a cart entry resolved against the current product state.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Cart struct {
	store *inventory.Store
	items []*Item
	now   func() time.Time
}

type Option func(*Cart)

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) {
		c.now = now
	}
}

func New(store *inventory.Store, opts ...Option) *Cart {
	c := &Cart{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the inventory the cart reads products from.
func (c *Cart) Store() *inventory.Store {
	return c.store
}

// Add puts quantity units of the product in the cart, merging with an
// existing entry for the same product. The cumulative quantity must fit in
// the available stock.
func (c *Cart) Add(productID string, quantity int) error {
	item, err := NewItem(productID, quantity)
	if err != nil {
		return err
	}

	product, err := c.store.GetStock(productID)
	if err != nil {
		return err
	}

	existing := c.find(productID)
	if existing == nil {
		if err := c.checkAvailability(product, item.Quantity); err != nil {
			return err
		}
		c.items = append(c.items, &item)
		return nil
	}

	// Compare against the remaining stock so the merged sum cannot overflow.
	if item.Quantity > product.Quantity-existing.Quantity {
		return insufficientStock(product, existing.Quantity, item.Quantity)
	}
	merged := existing.Quantity + item.Quantity
	if err := c.checkAvailability(product, merged); err != nil {
		return err
	}
	existing.Quantity = merged
	return nil
}

// Items returns a snapshot of the cart lines.
func (c *Cart) Items() ([]Line, error) {
	lines := make([]Line, 0, len(c.items))
	for _, item := range c.items {
		product, err := c.store.GetStock(item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines, nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Subtotal() (decimal.Decimal, error) {
	lines, err := c.Items()
	if err != nil {
		return decimal.Zero, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return subtotal, nil
}

// ShippableItems projects the entries whose product can be shipped, in cart
// order.
func (c *Cart) ShippableItems() ([]shipping.Item, error) {
	var items []shipping.Item
	for _, item := range c.items {
		product, err := c.store.GetStock(item.ProductID)
		if err != nil {
			return nil, err
		}

		parcel, ok := product.Shippable()
		if !ok {
			continue
		}
		items = append(items, shipping.Item{
			Name:   fmt.Sprintf("%dx %s", item.Quantity, product.Name),
			Weight: parcel.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return items, nil
}

// StockChanges lists how much stock checking out the cart consumes.
func (c *Cart) StockChanges() []inventory.StockChange {
	changes := make([]inventory.StockChange, 0, len(c.items))
	for _, item := range c.items {
		changes = append(changes, inventory.StockChange{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return changes
}

func (c *Cart) Clear() {
	c.items = nil
}

// Validate re-checks stock and expiry for every entry, since product state
// may have changed after the entry was added.
func (c *Cart) Validate() error {
	if c.IsEmpty() {
		return ErrEmpty
	}

	for _, item := range c.items {
		product, err := c.store.GetStock(item.ProductID)
		if err != nil {
			return err
		}
		if err := c.checkAvailability(product, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cart) checkAvailability(product domain.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > product.Quantity {
		return fmt.Errorf("%w for %s: available %d, requested %d",
			inventory.ErrInsufficientStock, product.Name, product.Quantity, quantity)
	}

	if p, ok := product.Perishable(); ok && p.ExpiredAt(c.now()) {
		return fmt.Errorf("%w: %s", domain.ErrProductExpired, product.Name)
	}
	return nil
}

func (c *Cart) find(productID string) *Item {
	for _, item := range c.items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}

// insufficientStock reports a merge that would exceed stock. The requested
// figure saturates at math.MaxInt instead of wrapping.
func insufficientStock(product domain.Product, inCart, adding int) error {
	requested := math.MaxInt
	if adding <= math.MaxInt-inCart {
		requested = inCart + adding
	}
	return fmt.Errorf("%w for %s: available %d, requested %d",
		inventory.ErrInsufficientStock, product.Name, product.Quantity, requested)
}
