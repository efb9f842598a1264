package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/middleware"
	"github.com/shopspring/decimal"
)

// OrderReadStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderReadStore interface {
	ListOrdersByStudent(ctx context.Context, studentID string) ([]database.Order, error)
	GetOrderStats(ctx context.Context) (database.OrderStatsRow, error)
}

// OrderHandler handles order history and stats endpoints.
type OrderHandler struct {
	store OrderReadStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderReadStore) *OrderHandler {
	return &OrderHandler{store: store}
}

// RegisterRoutes registers the student-facing endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.History)
}

// RegisterAdminRoutes registers the staff endpoints.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
}

// --- Response types ---

type historyEntryResponse struct {
	Date          string `json:"date"`
	Items         string `json:"items"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
}

type statsResponse struct {
	TotalOrders  int64  `json:"total_orders"`
	TotalRevenue string `json:"total_revenue"`
}

// --- Handlers ---

// History handles GET /orders/history for the authenticated student.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.store.ListOrdersByStudent(r.Context(), claims.StudentID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	entries := []historyEntryResponse{}
	for _, o := range orders {
		date := ""
		if o.OrderDate.Valid {
			date = o.OrderDate.Time.Format(time.DateOnly)
		}
		entries = append(entries, historyEntryResponse{
			Date:          date,
			Items:         o.ItemsDesc,
			Total:         numericToString(o.Total),
			PaymentMethod: o.PaymentMethod,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// Stats handles GET /admin/orders/stats.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetOrderStats(r.Context())
	if err != nil {
		log.Printf("ERROR: order stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:  stats.TotalOrders,
		TotalRevenue: numericToString(stats.TotalRevenue),
	})
}

// --- Helpers ---

func numericToString(n pgtype.Numeric) string {
	return numericToDecimal(n).StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
