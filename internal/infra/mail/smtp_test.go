package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"stockengine/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	raw  string
}

func newTestMailer(sent *[]sentMail, fail error) *SMTPMailer {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.test", Port: "587", From: "shop@example.com"}, "ops@example.com", "https://shop.example.com/")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if fail != nil {
			return fail
		}
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, raw: string(msg)})
		return nil
	}
	return m
}

func TestSMTPMailer_LowStockAlert_GoesToAdmin(t *testing.T) {
	var sent []sentMail
	m := newTestMailer(&sent, nil)

	err := m.SendLowStockAlert(context.Background(), usecase.LowStockAlert{
		ProductName: "Freshwater Pearl 6mm",
		VariantKey:  "white/6mm",
		Stock:       3,
		MOQ:         2,
		Threshold:   4,
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	assert.Equal(t, "smtp.test:587", sent[0].addr)
	assert.Equal(t, []string{"ops@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].raw, "Subject: [Low stock] Freshwater Pearl 6mm (white/6mm): 3 left")
}

func TestSMTPMailer_BackInStock_LinksProduct(t *testing.T) {
	var sent []sentMail
	m := newTestMailer(&sent, nil)

	err := m.SendBackInStockEmail(context.Background(), usecase.BackInStockMail{
		Email:       "buyer@example.com",
		ProductID:   42,
		ProductName: "Gold Jump Ring",
		VariantKey:  "standard",
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	assert.Equal(t, []string{"buyer@example.com"}, sent[0].to)
	assert.True(t, strings.Contains(sent[0].raw, "https://shop.example.com/products/42"))
}

func TestSMTPMailer_SendFailureIsReturned(t *testing.T) {
	var sent []sentMail
	m := newTestMailer(&sent, errors.New("421 try later"))

	err := m.SendBackInStockEmail(context.Background(), usecase.BackInStockMail{Email: "buyer@example.com"})
	assert.ErrorContains(t, err, "421 try later")
	assert.Empty(t, sent)
}

func TestSMTPMailer_EmptyRecipient(t *testing.T) {
	var sent []sentMail
	m := newTestMailer(&sent, nil)

	err := m.SendBackInStockEmail(context.Background(), usecase.BackInStockMail{})
	assert.ErrorContains(t, err, "empty recipient")
}
