package service

import (
	"fmt"
	"strings"
)

// ReceiptFormatter renders a finalized order into the text bill shown to the
// student. It consumes the finalized snapshot only.
type ReceiptFormatter struct {
	CanteenName string
}

// NewReceiptFormatter creates a formatter with the default canteen header.
func NewReceiptFormatter() *ReceiptFormatter {
	return &ReceiptFormatter{CanteenName: "Navrachana Canteen"}
}

// Format renders the receipt. customerName is display-only; the order itself
// carries the payer id.
func (f *ReceiptFormatter) Format(order *FinalizedOrder, customerName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", f.CanteenName)
	fmt.Fprintf(&b, "Name: %s\n", customerName)
	fmt.Fprintf(&b, "Enrollment: %s\n", order.PayerID)
	fmt.Fprintf(&b, "Date: %s\n", order.Date.Format("2006-01-02"))
	b.WriteString("Items Ordered:\n")
	for _, it := range order.Items {
		fmt.Fprintf(&b, "  - %s - ₹%s\n", it.Label, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: ₹%s\n", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment Mode: %s\n", order.PaymentMethod)
	if order.UpiReference != "" {
		fmt.Fprintf(&b, "UPI ID: %s\n", order.UpiReference)
	}
	b.WriteString("Thank You!\n")

	return b.String()
}
