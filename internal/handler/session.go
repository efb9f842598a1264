package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/middleware"
	"github.com/nuv-canteen/api/internal/service"
)

// SessionStore defines the database methods needed by session handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SessionStore interface {
	GetMenuItemByName(ctx context.Context, name string) (database.MenuItem, error)
}

// OrderNotifier pushes placed-order events to staff dashboards.
// Satisfied by *ws.Hub.
type OrderNotifier interface {
	BroadcastOrderPlaced(payload interface{})
}

// SessionHandler drives the per-student order session over HTTP.
type SessionHandler struct {
	sessions *service.SessionManager
	store    SessionStore
	receipts *service.ReceiptFormatter
	notifier OrderNotifier
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionManager, store SessionStore, receipts *service.ReceiptFormatter, notifier OrderNotifier) *SessionHandler {
	return &SessionHandler{sessions: sessions, store: store, receipts: receipts, notifier: notifier}
}

// RegisterRoutes registers session endpoints on the given Chi router.
// Expected to be mounted at /session behind authentication.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Status)
	r.Post("/cart/items", h.AddItem)
	r.Post("/cart/thali", h.AddThali)
	r.Delete("/cart/items/{label}", h.RemoveItem)
	r.Post("/checkout", h.Checkout)
	r.Delete("/pending", h.Discard)
	r.Post("/payment", h.SelectPayment)
	r.Post("/payment/upi", h.RecordUPI)
	r.Post("/payment/verify", h.Verify)
	r.Post("/finalize", h.Finalize)
}

// --- Request / Response types ---

type addItemRequest struct {
	Name string `json:"name"`
}

type addThaliRequest struct {
	Option string `json:"option"`
}

type selectPaymentRequest struct {
	Method string `json:"method"`
}

type recordUPIRequest struct {
	UpiID string `json:"upi_id"`
}

type lineItemResponse struct {
	Label string `json:"label"`
	Price string `json:"price"`
}

type cartResponse struct {
	Items []lineItemResponse `json:"items"`
	Total string             `json:"total"`
}

type pendingOrderResponse struct {
	Items []lineItemResponse `json:"items"`
	Total string             `json:"total"`
}

type sessionResponse struct {
	State     string                    `json:"state"`
	Cart      cartResponse              `json:"cart"`
	Pending   *pendingOrderResponse     `json:"pending,omitempty"`
	Reference *service.PayableReference `json:"reference,omitempty"`
}

type paymentResponse struct {
	State              string                    `json:"state"`
	Reference          *service.PayableReference `json:"reference,omitempty"`
	ManualConfirmation bool                      `json:"manual_confirmation,omitempty"`
	Warning            string                    `json:"warning,omitempty"`
}

type finalizedOrderResponse struct {
	PayerID       string             `json:"payer_id"`
	Items         []lineItemResponse `json:"items"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	UpiReference  string             `json:"upi_reference,omitempty"`
	Date          string             `json:"date"`
	Persisted     bool               `json:"persisted"`
}

type finalizeResponse struct {
	Order   finalizedOrderResponse `json:"order"`
	Receipt string                 `json:"receipt"`
	Warning string                 `json:"warning,omitempty"`
}

// --- Handlers ---

// Status handles GET /session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// AddItem handles POST /session/cart/items. The item is resolved from the
// menu catalog by name so the client cannot invent prices.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	item, err := h.store.GetMenuItemByName(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sess.Cart().AddItem(service.MenuItem{
		Name:     item.Name,
		Price:    numericToDecimal(item.Price),
		Category: item.Category,
	})
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// AddThali handles POST /session/cart/thali.
func (h *SessionHandler) AddThali(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addThaliRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := sess.Cart().AddThali(req.Option); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "select Half or Full thali"})
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// RemoveItem handles DELETE /session/cart/items/{label}. Removes every line
// matching the label; an absent label is not an error.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	label, err := url.PathUnescape(chi.URLParam(r, "label"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid label"})
		return
	}

	sess.Cart().RemoveByLabel(label)
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Checkout handles POST /session/checkout.
func (h *SessionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.BeginCheckout(); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "please add items first"})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: begin checkout: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Discard handles DELETE /session/pending. The cart is left untouched so
// checkout can be retried without re-adding items.
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.Discard(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// SelectPayment handles POST /session/payment. An unavailable adapter is
// non-fatal: the response flags the manual confirmation path instead of
// blocking the order.
func (h *SessionHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ref, err := sess.SelectPaymentMethod(r.Context(), req.Method)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMethod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method"})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrAdapterUnavailable):
			log.Printf("WARN: payment adapter unavailable: %v", err)
			writeJSON(w, http.StatusOK, paymentResponse{
				State:              sess.State(),
				ManualConfirmation: true,
				Warning:            "payment reference unavailable, confirm manually after paying",
			})
		default:
			log.Printf("ERROR: select payment: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{State: sess.State(), Reference: ref})
}

// RecordUPI handles POST /session/payment/upi.
func (h *SessionHandler) RecordUPI(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req recordUPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := sess.RecordUPIReference(req.UpiID); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyUPIReference):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "please enter a UPI ID"})
		default:
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Verify handles POST /session/payment/verify.
func (h *SessionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.VerifyOnlinePayment(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{State: sess.State()})
}

// Finalize handles POST /session/finalize. A persistence failure does not
// fail the request: the receipt is still produced, with persisted=false and
// a warning attached.
func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	sess := h.sessions.Get(claims.StudentID)

	order, err := sess.Finalize(r.Context())
	if err != nil && !errors.Is(err, service.ErrPersistFailed) {
		if errors.Is(err, service.ErrInvalidTransition) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: finalize: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := finalizeResponse{
		Order:   finalizedOrderView(order),
		Receipt: h.receipts.Format(order, claims.Name),
	}
	if err != nil {
		log.Printf("WARN: order for %s not persisted: %v", order.PayerID, err)
		resp.Warning = "order saved locally only, storage unavailable"
	}

	h.notifier.BroadcastOrderPlaced(resp.Order)

	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.OrderSession, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}
	return h.sessions.Get(claims.StudentID), true
}

func sessionView(sess *service.OrderSession) sessionResponse {
	resp := sessionResponse{
		State: sess.State(),
		Cart: cartResponse{
			Items: lineItemViews(sess.Cart().Items()),
			Total: sess.Cart().Total().StringFixed(2),
		},
	}
	if pending := sess.Pending(); pending != nil {
		resp.Pending = &pendingOrderResponse{
			Items: lineItemViews(pending.Items),
			Total: pending.Total.StringFixed(2),
		}
	}
	// Re-show the payable reference while the payment is outstanding.
	resp.Reference = sess.Reference()
	return resp
}

func lineItemViews(items []service.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, it := range items {
		out[i] = lineItemResponse{Label: it.Label, Price: it.Price.StringFixed(2)}
	}
	return out
}

func finalizedOrderView(order *service.FinalizedOrder) finalizedOrderResponse {
	return finalizedOrderResponse{
		PayerID:       order.PayerID,
		Items:         lineItemViews(order.Items),
		Total:         order.Total.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
		UpiReference:  order.UpiReference,
		Date:          order.Date.Format(time.DateOnly),
		Persisted:     order.Persisted,
	}
}
