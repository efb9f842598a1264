package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableReference is the opaque material for a scannable online-payment
// code: an encoded payload plus a unique token identifying the request.
type PayableReference struct {
	Token   string          `json:"token"`
	Payload string          `json:"payload"`
	Amount  decimal.Decimal `json:"amount"`
}

// PaymentAdapter produces a payable reference for the online method. It must
// not mutate order state; cash payments never reach it.
type PaymentAdapter interface {
	PrepareOnlinePayment(ctx context.Context, payerID string, amount decimal.Decimal) (PayableReference, error)
}

// UPIAdapter encodes the canteen UPI payload shown at the counter.
type UPIAdapter struct{}

func (UPIAdapter) PrepareOnlinePayment(ctx context.Context, payerID string, amount decimal.Decimal) (PayableReference, error) {
	if err := ctx.Err(); err != nil {
		return PayableReference{}, err
	}
	return PayableReference{
		Token:   uuid.NewString(),
		Payload: fmt.Sprintf("NUV_CANTEEN|%s|AMOUNT:%s", payerID, amount.StringFixed(2)),
		Amount:  amount,
	}, nil
}
