package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListThaliSchedule(ctx context.Context) ([]database.ThaliDay, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItemByName(ctx context.Context, name string) (int64, error)
}

// MenuHandler handles the menu catalog endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the read-only catalog endpoints.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/schedule", h.Schedule)
}

// RegisterAdminRoutes registers the menu-management endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Delete("/{name}", h.Delete)
}

// --- Request / Response types ---

type menuItemResponse struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type menuResponse struct {
	Items    []menuItemResponse `json:"items"`
	Fallback bool               `json:"fallback"`
}

type scheduleResponse struct {
	Schedule map[string]string `json:"schedule"`
	Fallback bool              `json:"fallback"`
}

type createMenuItemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

// sampleMenu is served when the store is unreachable, so the counter can
// keep taking orders. Mirrors the seeded catalog.
var sampleMenu = []menuItemResponse{
	{Name: "Veg Sandwich", Price: "40.00", Category: "Fast Food"},
	{Name: "Cheese Burger", Price: "70.00", Category: "Fast Food"},
	{Name: "French Fries", Price: "50.00", Category: "Fast Food"},
	{Name: "Cold Coffee", Price: "45.00", Category: "Beverage"},
	{Name: "Tea", Price: "15.00", Category: "Beverage"},
	{Name: "Samosa", Price: "20.00", Category: "Fast Food"},
	{Name: "Momos", Price: "60.00", Category: "Fast Food"},
	{Name: "Cold Drink", Price: "30.00", Category: "Beverage"},
	{Name: "Pav Bhaji", Price: "80.00", Category: "Fast Food"},
	{Name: "Mineral Water", Price: "20.00", Category: "Beverage"},
}

var sampleSchedule = map[string]string{
	"Monday":    "Rice, Dal Fry, Aloo Gobi, Roti, Salad, Pickle",
	"Tuesday":   "Rajma Chawal, Roti, Bhindi, Salad, Pickle",
	"Wednesday": "Pulav, Raita, Paneer Masala, Roti, Salad",
	"Thursday":  "Kadhi Chawal, Roti, Mix Veg, Salad, Pickle",
	"Friday":    "Jeera Rice, Dal Tadka, Aloo Matar, Roti, Salad",
	"Saturday":  "Veg Biryani, Raita, Chole, Roti, Salad",
}

// --- Handlers ---

// List handles GET /menu. A store failure is non-fatal: the sample catalog
// is served with fallback=true so the caller can tell the difference.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("WARN: list menu items, serving sample catalog: %v", err)
		writeJSON(w, http.StatusOK, menuResponse{Items: sampleMenu, Fallback: true})
		return
	}

	resp := menuResponse{Items: []menuItemResponse{}}
	for _, m := range items {
		resp.Items = append(resp.Items, menuItemResponse{
			Name:     m.Name,
			Price:    numericToString(m.Price),
			Category: m.Category,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Schedule handles GET /menu/schedule (weekday → thali description).
func (h *MenuHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.ListThaliSchedule(r.Context())
	if err != nil {
		log.Printf("WARN: list thali schedule, serving sample: %v", err)
		writeJSON(w, http.StatusOK, scheduleResponse{Schedule: sampleSchedule, Fallback: true})
		return
	}

	schedule := make(map[string]string, len(days))
	for _, d := range days {
		schedule[d.Weekday] = d.Description
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Schedule: schedule})
}

// Create handles POST /admin/menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be positive"})
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Fast Food"
	}

	var priceNum pgtype.Numeric
	_ = priceNum.Scan(price.StringFixed(2))

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:     req.Name,
		Price:    priceNum,
		Category: category,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item already exists"})
			return
		}
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, menuItemResponse{
		Name:     item.Name,
		Price:    numericToString(item.Price),
		Category: item.Category,
	})
}

// Delete handles DELETE /admin/menu/{name}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item name"})
		return
	}

	rows, err := h.store.DeleteMenuItemByName(r.Context(), name)
	if err != nil {
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
