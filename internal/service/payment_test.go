package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUPIAdapter_Payload(t *testing.T) {
	ref, err := UPIAdapter{}.PrepareOnlinePayment(context.Background(), "S123", decimal.NewFromInt(85))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if ref.Payload != "NUV_CANTEEN|S123|AMOUNT:85.00" {
		t.Errorf("payload = %q", ref.Payload)
	}
	if ref.Token == "" {
		t.Error("reference must carry a token")
	}
	if !ref.Amount.Equal(decimal.NewFromInt(85)) {
		t.Errorf("amount = %s, want 85", ref.Amount)
	}
}

func TestUPIAdapter_UniqueTokens(t *testing.T) {
	a, _ := UPIAdapter{}.PrepareOnlinePayment(context.Background(), "S123", decimal.NewFromInt(10))
	b, _ := UPIAdapter{}.PrepareOnlinePayment(context.Background(), "S123", decimal.NewFromInt(10))
	if a.Token == b.Token {
		t.Error("tokens must be unique per request")
	}
}

func TestUPIAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := UPIAdapter{}.PrepareOnlinePayment(ctx, "S123", decimal.NewFromInt(10))
	if err == nil || !strings.Contains(err.Error(), "context") {
		t.Fatalf("expected context error, got: %v", err)
	}
}
