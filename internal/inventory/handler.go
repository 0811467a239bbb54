package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
)

// Handler serves a read-only view of the store.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

type stockLevel struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      domain.ProductKind `json:"kind"`
	Price     decimal.Decimal    `json:"price"`
	Available int                `json:"available"`
	WeightKg  *decimal.Decimal   `json:"weight_kg,omitempty"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
	Expired   bool               `json:"expired"`
}

func newStockLevel(p domain.Product) stockLevel {
	level := stockLevel{
		ID:        p.ID,
		Name:      p.Name,
		Kind:      p.Kind(),
		Price:     p.Price,
		Available: p.Quantity,
	}
	if s, ok := p.Shippable(); ok {
		level.WeightKg = &s.Weight
	}
	if per, ok := p.Perishable(); ok {
		level.ExpiresAt = &per.ExpiresAt
		level.Expired = per.IsExpired()
	}
	return level
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	products := h.store.ListAll()

	items := make([]stockLevel, 0, len(products))
	for _, p := range products {
		items = append(items, newStockLevel(p))
	}

	h.logger.Info("stock listed", "count", len(items))
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.store.GetStock(productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get stock", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("stock retrieved", "product_id", productID)
	h.writeJSON(w, http.StatusOK, newStockLevel(product))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
