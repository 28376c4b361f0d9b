package notification

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
)

func testNotification() port.ApprovalNotification {
	return port.ApprovalNotification{
		ApprovalID:    7,
		InvoiceID:     "INV-8001",
		VendorName:    "Severstal Trading",
		Country:       "russia",
		TotalAmount:   10800,
		FraudScore:    40,
		Level:         2,
		ApproverName:  "Finance Director",
		ApproverEmail: "finance@example.com",
		ActionRef:     "/api/approvals/7",
	}
}

func TestNotify_SendsExpectedMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewSMTPNotifier(Config{
		Host:        "smtp.example.com",
		Port:        587,
		SenderEmail: "noreply@example.com",
		SenderPass:  "secret",
		BaseURL:     "https://gate.example.com",
		Enabled:     true,
	}, zap.NewNop())
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := n.Notify(context.Background(), testNotification())

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"finance@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: [ACTION REQUIRED] Invoice Approval Pending - INV-8001")
	assert.Contains(t, body, "Severstal Trading")
	assert.Contains(t, body, "$10800.00")
	assert.Contains(t, body, "Level 2 (Finance Director)")
	assert.Contains(t, body, "https://gate.example.com/api/approvals/7/approve")
}

func TestNotify_DisabledSkipsDelivery(t *testing.T) {
	called := false
	n := NewSMTPNotifier(Config{Enabled: false}, zap.NewNop())
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	err := n.Notify(context.Background(), testNotification())

	require.ErrorIs(t, err, port.ErrNotifierDisabled)
	assert.False(t, called)
}

func TestNotify_MissingApproverEmail(t *testing.T) {
	n := NewSMTPNotifier(Config{Enabled: true}, zap.NewNop())

	notification := testNotification()
	notification.ApproverEmail = ""
	err := n.Notify(context.Background(), notification)

	assert.Error(t, err)
}

func TestNotify_TransportErrorPropagates(t *testing.T) {
	n := NewSMTPNotifier(Config{Enabled: true}, zap.NewNop())
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := n.Notify(context.Background(), testNotification())

	assert.ErrorContains(t, err, "connection refused")
}
