package demo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/checkout-otel-demo/internal/cart"
	"github.com/joao-fontenele/checkout-otel-demo/internal/checkout"
	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/inventory"
)

const (
	ScenarioSuccess             = "successful checkout"
	ScenarioEmptyCart           = "empty cart"
	ScenarioInsufficientBalance = "insufficient balance"
	ScenarioInsufficientStock   = "insufficient stock"
	ScenarioRepeatedAdds        = "repeated adds"
)

// Outcome is what one scenario produced. Result is nil for scenarios that
// stop before checkout.
type Outcome struct {
	Scenario string
	Result   *domain.CheckoutResult
	Err      error
	Lines    []cart.Line
}

type Report struct {
	Outcomes []Outcome
}

func (r Report) Outcome(scenario string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Scenario == scenario {
			return o, true
		}
	}
	return Outcome{}, false
}

type catalog struct {
	cheese, biscuits, tv, mobile, scratchCard *domain.Product
}

// Run registers a small catalog in store and walks the checkout scenarios
// against svc.
func Run(ctx context.Context, store *inventory.Store, svc *checkout.Service, logger *slog.Logger) (Report, error) {
	products, err := newCatalog(time.Now())
	if err != nil {
		return Report{}, fmt.Errorf("create products: %w", err)
	}
	all := []*domain.Product{products.cheese, products.biscuits, products.tv, products.mobile, products.scratchCard}
	if err := store.Add(all...); err != nil {
		return Report{}, fmt.Errorf("register products: %w", err)
	}

	for _, p := range all {
		_, perishable := p.Perishable()
		_, shippable := p.Shippable()
		logger.InfoContext(ctx, "product registered",
			"name", p.Name,
			"kind", p.Kind(),
			"perishable", perishable,
			"shippable", shippable,
			"price", p.Price.String(),
			"stock", p.Quantity,
		)
	}

	john := domain.NewCustomer("John Doe", decimal.NewFromInt(2000))
	jane := domain.NewCustomer("Jane Smith", decimal.NewFromInt(100))
	for _, c := range []*domain.Customer{john, jane} {
		logger.InfoContext(ctx, "customer created", "name", c.Name, "balance", c.Balance().String())
	}

	var report Report

	success, err := runCheckout(ctx, svc, store, john, ScenarioSuccess, []add{
		{products.cheese.ID, 2},
		{products.biscuits.ID, 1},
		{products.tv.ID, 1},
		{products.scratchCard.ID, 1},
	})
	if err != nil {
		return Report{}, err
	}
	report.Outcomes = append(report.Outcomes, success)

	empty, err := runCheckout(ctx, svc, store, john, ScenarioEmptyCart, nil)
	if err != nil {
		return Report{}, err
	}
	report.Outcomes = append(report.Outcomes, empty)

	broke, err := runCheckout(ctx, svc, store, jane, ScenarioInsufficientBalance, []add{
		{products.tv.ID, 1},
		{products.mobile.ID, 1},
	})
	if err != nil {
		return Report{}, err
	}
	report.Outcomes = append(report.Outcomes, broke)

	stockCart := cart.New(store)
	tv, _ := store.GetStock(products.tv.ID)
	logger.InfoContext(ctx, "adding more than available", "scenario", ScenarioInsufficientStock, "name", tv.Name, "available", tv.Quantity, "requested", 10)
	addErr := stockCart.Add(products.tv.ID, 10)
	if addErr != nil {
		logger.InfoContext(ctx, "add rejected", "scenario", ScenarioInsufficientStock, "error", addErr)
	}
	report.Outcomes = append(report.Outcomes, Outcome{Scenario: ScenarioInsufficientStock, Err: addErr})

	edgeCart := cart.New(store)
	for _, qty := range []int{1, 2} {
		if err := edgeCart.Add(products.cheese.ID, qty); err != nil {
			return Report{}, fmt.Errorf("%s: %w", ScenarioRepeatedAdds, err)
		}
		logger.InfoContext(ctx, "added to cart", "scenario", ScenarioRepeatedAdds, "quantity", qty, "entries", edgeCart.Len())
	}
	lines, err := edgeCart.Items()
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", ScenarioRepeatedAdds, err)
	}
	report.Outcomes = append(report.Outcomes, Outcome{Scenario: ScenarioRepeatedAdds, Lines: lines})

	return report, nil
}

type add struct {
	productID string
	quantity  int
}

func runCheckout(ctx context.Context, svc *checkout.Service, store *inventory.Store, customer *domain.Customer, scenario string, adds []add) (Outcome, error) {
	c := cart.New(store)
	for _, a := range adds {
		if err := c.Add(a.productID, a.quantity); err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", scenario, err)
		}
	}

	lines, err := c.Items()
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", scenario, err)
	}

	result := svc.ProcessCheckout(ctx, customer, c)
	return Outcome{Scenario: scenario, Result: &result, Lines: lines}, nil
}

func newCatalog(now time.Time) (catalog, error) {
	var (
		c   catalog
		err error
	)

	c.cheese, err = domain.NewPerishableShippableProduct("Cheese",
		decimal.NewFromInt(100), 10, now.AddDate(0, 2, 0), decimal.RequireFromString("0.2"))
	if err != nil {
		return catalog{}, err
	}

	c.biscuits, err = domain.NewPerishableShippableProduct("Biscuits",
		decimal.NewFromInt(75), 8, now.AddDate(0, 1, 0), decimal.RequireFromString("0.35"))
	if err != nil {
		return catalog{}, err
	}

	c.tv, err = domain.NewShippableProduct("TV", decimal.NewFromInt(500), 5, decimal.NewFromInt(15))
	if err != nil {
		return catalog{}, err
	}

	c.mobile, err = domain.NewShippableProduct("Mobile", decimal.NewFromInt(800), 3, decimal.RequireFromString("0.5"))
	if err != nil {
		return catalog{}, err
	}

	c.scratchCard, err = domain.NewNonShippableProduct("Mobile Scratch Card", decimal.NewFromInt(50), 20)
	if err != nil {
		return catalog{}, err
	}

	return c, nil
}
