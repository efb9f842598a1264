package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the order session.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("operation not valid in current session state")
	ErrInvalidThaliOption = errors.New("invalid thali option")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrEmptyUPIReference  = errors.New("upi reference is empty")
	ErrAdapterUnavailable = errors.New("payment adapter unavailable")
	ErrPersistFailed      = errors.New("order could not be persisted")
)

// OrderStore persists a finalized order.
// Satisfied by *database.Queries.
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
}

// PendingOrder is the immutable snapshot taken at checkout. The live cart
// may keep changing without affecting it.
type PendingOrder struct {
	Items []LineItem
	Total decimal.Decimal
}

// PaymentSelection records the chosen method and its verification state.
// Cash is verified unconditionally; online starts unverified.
type PaymentSelection struct {
	Method       string
	UpiReference string
	Verified     bool
}

// FinalizedOrder is the order snapshot handed to the store and the receipt
// formatter. Never mutated after creation.
type FinalizedOrder struct {
	PayerID       string
	Items         []LineItem
	Total         decimal.Decimal
	PaymentMethod string
	UpiReference  string
	Date          time.Time
	Persisted     bool
}

// OrderSession drives one student's order through
// IDLE → REVIEWING → AWAITING_PAYMENT → READY_TO_FINALIZE → IDLE.
// Each transition is atomic; an operation arriving in an incompatible state
// is rejected with ErrInvalidTransition, never queued.
type OrderSession struct {
	mu sync.Mutex

	payerID   string
	cart      *Cart
	state     string
	pending   *PendingOrder
	payment   *PaymentSelection
	reference *PayableReference

	adapter        PaymentAdapter
	store          OrderStore
	adapterTimeout time.Duration
}

// NewOrderSession creates an idle session for the given payer.
func NewOrderSession(payerID string, adapter PaymentAdapter, store OrderStore, adapterTimeout time.Duration) *OrderSession {
	return &OrderSession{
		payerID:        payerID,
		cart:           NewCart(),
		state:          enum.SessionStateIdle,
		adapter:        adapter,
		store:          store,
		adapterTimeout: adapterTimeout,
	}
}

// State returns the current state name.
func (s *OrderSession) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PayerID returns the payer this session belongs to.
func (s *OrderSession) PayerID() string {
	return s.payerID
}

// Cart returns the live cart. The cart carries its own lock, so mutations
// may arrive concurrently with transitions; mutations after checkout never
// affect the pending snapshot.
func (s *OrderSession) Cart() *Cart {
	return s.cart
}

// Pending returns a copy of the pending order, or nil when there is none.
func (s *OrderSession) Pending() *PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	items := make([]LineItem, len(s.pending.Items))
	copy(items, s.pending.Items)
	return &PendingOrder{Items: items, Total: s.pending.Total}
}

// Payment returns a copy of the current payment selection, or nil.
func (s *OrderSession) Payment() *PaymentSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return nil
	}
	p := *s.payment
	return &p
}

// Reference returns a copy of the issued payable reference, or nil. It stays
// available while the session awaits payment so the code can be re-shown.
func (s *OrderSession) Reference() *PayableReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reference == nil {
		return nil
	}
	ref := *s.reference
	return &ref
}

// BeginCheckout snapshots the cart into a pending order and moves to
// REVIEWING. The cart itself is left untouched.
func (s *OrderSession) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateIdle {
		return fmt.Errorf("begin checkout from %s: %w", s.state, ErrInvalidTransition)
	}

	// Single read of the cart; the total is summed from the copy so a
	// concurrent add cannot tear the snapshot.
	items := s.cart.Items()
	if len(items) == 0 {
		return ErrEmptyCart
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}

	s.pending = &PendingOrder{Items: items, Total: total}
	s.state = enum.SessionStateReviewing
	return nil
}

// Discard drops the pending order from any pre-finalize state and returns
// to IDLE. Cart contents are kept so checkout can be retried.
func (s *OrderSession) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == enum.SessionStateIdle {
		return fmt.Errorf("discard from %s: %w", s.state, ErrInvalidTransition)
	}
	s.reset()
	return nil
}

// SelectPaymentMethod branches the payment flow. Cash is satisfied
// immediately. Online asks the adapter for a payable reference under a
// bounded timeout; adapter failure or timeout is non-fatal — the session
// stays in AWAITING_PAYMENT so the manual confirmation path remains open,
// and the error is returned wrapped in ErrAdapterUnavailable.
func (s *OrderSession) SelectPaymentMethod(ctx context.Context, method string) (*PayableReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateReviewing {
		return nil, fmt.Errorf("select payment from %s: %w", s.state, ErrInvalidTransition)
	}

	switch method {
	case enum.PaymentMethodCash:
		s.payment = &PaymentSelection{Method: method, Verified: true}
		s.state = enum.SessionStateReadyToFinalize
		return nil, nil

	case enum.PaymentMethodOnline:
		s.payment = &PaymentSelection{Method: method}
		s.state = enum.SessionStateAwaitingPayment

		adapterCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
		defer cancel()
		ref, err := s.adapter.PrepareOnlinePayment(adapterCtx, s.payerID, s.pending.Total)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
		}
		s.reference = &ref
		return &ref, nil

	default:
		return nil, ErrInvalidMethod
	}
}

// RecordUPIReference stores a free-text UPI id on an unverified online
// selection. Informational only; not verification.
func (s *OrderSession) RecordUPIReference(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateAwaitingPayment {
		return fmt.Errorf("record upi from %s: %w", s.state, ErrInvalidTransition)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyUPIReference
	}
	s.payment.UpiReference = value
	return nil
}

// VerifyOnlinePayment marks an unverified online selection as paid and moves
// to READY_TO_FINALIZE. There is no gateway behind it; this is the trusted
// simulated confirmation the adapter contract exists to replace.
func (s *OrderSession) VerifyOnlinePayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateAwaitingPayment {
		return fmt.Errorf("verify payment from %s: %w", s.state, ErrInvalidTransition)
	}
	s.payment.Verified = true
	s.state = enum.SessionStateReadyToFinalize
	return nil
}

// Finalize produces the finalized order and attempts to persist it. A store
// failure does not abort the flow: the order is returned with
// Persisted=false alongside a wrapped ErrPersistFailed so the caller can
// surface a warning while still showing the receipt. In both outcomes the
// cart is cleared and the session returns to IDLE.
func (s *OrderSession) Finalize(ctx context.Context) (*FinalizedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateReadyToFinalize {
		return nil, fmt.Errorf("finalize from %s: %w", s.state, ErrInvalidTransition)
	}

	// Total comes from the frozen snapshot, never the live cart.
	order := &FinalizedOrder{
		PayerID:       s.payerID,
		Items:         s.pending.Items,
		Total:         s.pending.Total,
		PaymentMethod: s.payment.Method,
		UpiReference:  s.payment.UpiReference,
		Date:          time.Now(),
	}

	persistErr := s.persist(ctx, order)
	if persistErr == nil {
		order.Persisted = true
	}

	s.cart.Clear()
	s.reset()

	if persistErr != nil {
		return order, fmt.Errorf("%w: %w", ErrPersistFailed, persistErr)
	}
	return order, nil
}

func (s *OrderSession) persist(ctx context.Context, order *FinalizedOrder) error {
	labels := make([]string, len(order.Items))
	for i, it := range order.Items {
		labels[i] = it.Label
	}

	upi := pgtype.Text{}
	if order.UpiReference != "" {
		upi = pgtype.Text{String: order.UpiReference, Valid: true}
	}

	_, err := s.store.CreateOrder(ctx, database.CreateOrderParams{
		StudentID:     order.PayerID,
		ItemsDesc:     strings.Join(labels, ", "),
		Total:         decimalToNumeric(order.Total),
		PaymentMethod: order.PaymentMethod,
		UpiReference:  upi,
		OrderDate:     pgtype.Date{Time: order.Date, Valid: true},
	})
	return err
}

// reset drops pending order and payment state. Caller holds the lock.
func (s *OrderSession) reset() {
	s.pending = nil
	s.payment = nil
	s.reference = nil
	s.state = enum.SessionStateIdle
}

// --- Helpers ---

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
