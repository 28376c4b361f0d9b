package port

import (
	"context"
	"errors"
)

// ErrNotifierDisabled reports that delivery is switched off in
// configuration. Callers treat it as "not sent", not as a failure.
var ErrNotifierDisabled = errors.New("notifier disabled")

// ApprovalNotification is the payload handed to the transport, by value
type ApprovalNotification struct {
	ApprovalID    int64
	InvoiceID     string
	VendorName    string
	Country       string
	TotalAmount   float64
	FraudScore    float64
	Level         int
	ApproverName  string
	ApproverEmail string
	ActionRef     string // approve/reject endpoint hint for the recipient
}

// ApprovalNotifier delivers approval notifications. Delivery failures are
// the caller's to log; they must never roll back a state transition.
type ApprovalNotifier interface {
	Notify(ctx context.Context, notification ApprovalNotification) error
}
