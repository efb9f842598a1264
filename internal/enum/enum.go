package enum

// ── Group A: State machines ──

const (
	SessionStateIdle            = "IDLE"
	SessionStateReviewing       = "REVIEWING"
	SessionStateAwaitingPayment = "AWAITING_PAYMENT"
	SessionStateReadyToFinalize = "READY_TO_FINALIZE"
)

// ── Group B: Configurable labels ──

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodOnline = "ONLINE"
)

const (
	ThaliOptionHalf = "HALF"
	ThaliOptionFull = "FULL"
)

const (
	UserRoleStudent = "STUDENT"
	UserRoleAdmin   = "ADMIN"
)
