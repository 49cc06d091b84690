// Package mail は在庫アラートと再入荷通知の送信。
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"stockengine/internal/usecase"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// 1通ずつnet/smtpで送る
type SMTPMailer struct {
	cfg        SMTPConfig
	adminEmail string
	storeURL   string
	send       func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, adminEmail, storeURL string) *SMTPMailer {
	return &SMTPMailer{
		cfg:        cfg,
		adminEmail: adminEmail,
		storeURL:   strings.TrimRight(storeURL, "/"),
		send:       smtp.SendMail,
	}
}

func (m *SMTPMailer) SendLowStockAlert(ctx context.Context, a usecase.LowStockAlert) error {
	subject := fmt.Sprintf("[Low stock] %s (%s): %d left", a.ProductName, a.VariantKey, a.Stock)
	body := fmt.Sprintf(
		"Product: %s\nVariant: %s\nStock: %d\nMOQ: %d\nThreshold: %d\n",
		a.ProductName, a.VariantKey, a.Stock, a.MOQ, a.Threshold,
	)
	return m.deliver(ctx, m.adminEmail, subject, body)
}

func (m *SMTPMailer) SendBackInStockEmail(ctx context.Context, n usecase.BackInStockMail) error {
	subject := fmt.Sprintf("%s is back in stock", n.ProductName)
	body := fmt.Sprintf(
		"Good news! %s (%s) is available again.\n%s/products/%d\n",
		n.ProductName, n.VariantKey, m.storeURL, n.ProductID,
	)
	return m.deliver(ctx, n.Email, subject, body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	raw := buildRaw(m.cfg.From, to, subject, body, time.Now())
	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := m.send(addr, auth, m.cfg.From, []string{to}, raw); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func buildRaw(from, to, subject, body string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
