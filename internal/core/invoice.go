package core

import "time"

const (
	StatusOpen          InvoiceStatus = "open"
	StatusClosed        InvoiceStatus = "closed"
	StatusPaid          InvoiceStatus = "paid"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusEmpty         InvoiceStatus = "empty"
)

type InvoiceStatus string

// Invoice aggregates a card's bills within one billing-cycle window.
// Total is always the live sum of the bills; a receipt's TotalAmount is a
// manual override exposed alongside, never substituted into Total.
type Invoice struct {
	Card    Card
	Ref     Ref
	Bills   []Bill
	Total   Money
	Receipt *Receipt
	Status  InvoiceStatus
}

// StatusOf derives the invoice status from the period end date, the
// persisted receipt (nil when none) and the live total.
//
// The paid/partially-paid outcome is only reachable once the period end has
// elapsed; a payment recorded before the close keeps the invoice open.
func StatusOf(periodEnd time.Time, receipt *Receipt, total Money, now time.Time) InvoiceStatus {
	if total.IsZero() && (receipt == nil || receipt.TotalAmount.IsZero()) {
		return StatusEmpty
	}
	if periodEnd.Before(now) {
		if receipt != nil && receipt.Paid {
			if receipt.PaidAmount.Cents >= receipt.TotalAmount.Cents {
				return StatusPaid
			}
			return StatusPartiallyPaid
		}
		return StatusClosed
	}
	return StatusOpen
}
