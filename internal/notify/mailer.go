package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"text/template"

	"marketplace/internal/config"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

const checkoutCodeSubject = "Your checkout code"

// sendFunc matches (*email.Email).Send so tests can capture outgoing mail
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// SMTPMailer sends HTML mail through an SMTP relay
type SMTPMailer struct {
	cfg    config.MailConfig
	auth   smtp.Auth
	send   sendFunc
	logger *zap.Logger
}

// NewSMTPMailer returns an SMTP-backed Notifier, or a disabled one when SMTP is not configured
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) Notifier {
	if !cfg.Configured() {
		logger.Warn("SMTP is not configured, checkout codes will not be emailed")
		return NewDisabledNotifier()
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		cfg:    cfg,
		auth:   auth,
		send:   func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
		logger: logger,
	}
}

func (m *SMTPMailer) SendCheckoutCode(ctx context.Context, msg CheckoutCodeMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := RenderCheckoutCode(msg)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{msg.To}
	e.Subject = checkoutCodeSubject
	e.Text = []byte(fmt.Sprintf("Your checkout code for order %s is %s", msg.OrderID, msg.Code))
	e.HTML = []byte(html)

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(e, addr, m.auth); err != nil {
		return fmt.Errorf("failed to send checkout code email: %w", err)
	}

	m.logger.Info("Checkout code email sent",
		zap.String("order_id", msg.OrderID),
		zap.String("to", msg.To),
	)
	return nil
}

// RenderCheckoutCode renders the HTML body of a checkout code email
func RenderCheckoutCode(msg CheckoutCodeMessage) (string, error) {
	tmpl, err := template.New("checkoutCode").Parse(checkoutCodeTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse checkout code template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to render checkout code template: %w", err)
	}

	return buf.String(), nil
}

const checkoutCodeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Checkout code</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 20px; background-color: #f4f4f4; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <p>Hi {{if .BuyerName}}{{.BuyerName}}{{else}}there{{end}},</p>
        <p>Use this code to confirm order {{.OrderID}} (total {{printf "%.2f" .Total}}):</p>
        <div class="code">{{.Code}}</div>
        <p>The code expires at {{.ExpiresAt.Format "15:04 MST"}}.</p>
        <div class="footer">
            <p>If you did not place this order you can ignore this email.</p>
        </div>
    </div>
</body>
</html>
`
