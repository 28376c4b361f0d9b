package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
)

// Config holds SMTP transport configuration, built once at startup
type Config struct {
	Host        string
	Port        int
	SenderEmail string
	SenderPass  string
	BaseURL     string
	Enabled     bool
}

// SMTPNotifier delivers approval notifications over SMTP. With Enabled
// false it logs what would have been sent and reports
// port.ErrNotifierDisabled so callers do not record a delivery.
type SMTPNotifier struct {
	cfg    Config
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(cfg Config, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Notify sends the pending-approval email to the current approver
func (n *SMTPNotifier) Notify(ctx context.Context, notification port.ApprovalNotification) error {
	if !n.cfg.Enabled {
		n.logger.Info("Email disabled, skipping approval notification",
			zap.String("to", notification.ApproverEmail),
			zap.String("invoice_id", notification.InvoiceID),
			zap.Int("level", notification.Level))
		return port.ErrNotifierDisabled
	}
	if notification.ApproverEmail == "" {
		return fmt.Errorf("no approver email configured for level %d", notification.Level)
	}

	msg := n.buildMessage(notification)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.SenderEmail, n.cfg.SenderPass, n.cfg.Host)

	if err := n.send(addr, auth, n.cfg.SenderEmail, []string{notification.ApproverEmail}, msg); err != nil {
		return fmt.Errorf("failed to send approval email: %w", err)
	}

	n.logger.Info("Approval notification sent",
		zap.String("to", notification.ApproverEmail),
		zap.String("invoice_id", notification.InvoiceID))
	return nil
}

func (n *SMTPNotifier) buildMessage(notification port.ApprovalNotification) []byte {
	subject := fmt.Sprintf("[ACTION REQUIRED] Invoice Approval Pending - %s", notification.InvoiceID)

	var body strings.Builder
	body.WriteString("<html><body>")
	body.WriteString("<h2>Invoice Approval Required</h2>")
	body.WriteString("<p>A new invoice requires your approval:</p>")
	body.WriteString(`<table border="1" cellpadding="10">`)
	writeRow(&body, "Invoice ID", notification.InvoiceID)
	writeRow(&body, "Vendor", orNA(notification.VendorName))
	writeRow(&body, "Country", orNA(notification.Country))
	writeRow(&body, "Amount", fmt.Sprintf("$%.2f", notification.TotalAmount))
	writeRow(&body, "Fraud Score", fmt.Sprintf("%.1f", notification.FraudScore))
	writeRow(&body, "Approval Level", fmt.Sprintf("Level %d (%s)", notification.Level, notification.ApproverName))
	body.WriteString("</table>")
	actionURL := n.cfg.BaseURL + notification.ActionRef
	body.WriteString("<p>Please review and approve or reject this invoice:</p><ul>")
	body.WriteString(fmt.Sprintf("<li>Approve: POST %s/approve</li>", actionURL))
	body.WriteString(fmt.Sprintf("<li>Reject: POST %s/reject</li>", actionURL))
	body.WriteString("</ul><p>Invoice Processing System</p></body></html>")

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		n.cfg.SenderEmail, notification.ApproverEmail, subject)
	return []byte(headers + body.String())
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", label, value)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var _ port.ApprovalNotifier = (*SMTPNotifier)(nil)
