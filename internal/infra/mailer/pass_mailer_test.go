package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"pass-app/internal/domain/passes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func issuedPurchase() *passes.Purchase {
	start, _ := passes.ParseStartDate("2026-01-01")
	exp, _ := passes.ComputeExpiry(start, 15)
	link := "https://pub1.pskt.io/abc"
	receipt := "https://pay.stripe.com/receipts/xyz"
	return &passes.Purchase{
		StripeSessionID: "cs_1",
		CustomerEmail:   "guest@example.com",
		PassTier:        passes.Tier15,
		StartDate:       &start,
		ExpiryDate:      &exp,
		PassID:          passes.DerivePassID("cs_1"),
		PassLinkURL:     &link,
		ReceiptURL:      &receipt,
		CreatedAt:       time.Now(),
	}
}

func TestComposePassReady(t *testing.T) {
	m := NewPassMailer(&recordingSender{}, "https://pass.example.com/")
	p := issuedPurchase()

	msg, err := m.ComposePassReady(p)
	require.NoError(t, err)

	assert.Equal(t, "guest@example.com", msg.To)
	assert.Contains(t, msg.HTML, "15-day pass")
	assert.Contains(t, msg.HTML, "2026-01-01")
	assert.Contains(t, msg.HTML, "2026-01-15")
	assert.Contains(t, msg.HTML, "https://pub1.pskt.io/abc")
	assert.Contains(t, msg.HTML, "https://pay.stripe.com/receipts/xyz")
	assert.Contains(t, msg.HTML, "https://pass.example.com/passes/"+p.PassID+"/qr.png")
	assert.Contains(t, msg.HTML, passes.HolderPlaceholder)
	assert.NotContains(t, msg.HTML, "cs_1", "session id must not leak into the email")
	assert.Contains(t, msg.Text, "https://pub1.pskt.io/abc")
}

func TestComposePassReady_EscapesHolderName(t *testing.T) {
	p := issuedPurchase()
	name := `<script>alert(1)</script>`
	p.PassHolderName = &name

	msg, err := NewPassMailer(&recordingSender{}, "").ComposePassReady(p)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "qr.png")
}

func TestComposePassReady_RequiresLinkAndEmail(t *testing.T) {
	m := NewPassMailer(&recordingSender{}, "")

	p := issuedPurchase()
	p.PassLinkURL = nil
	_, err := m.ComposePassReady(p)
	assert.ErrorIs(t, err, passes.ErrNotification)

	p = issuedPurchase()
	p.CustomerEmail = ""
	_, err = m.ComposePassReady(p)
	assert.ErrorIs(t, err, passes.ErrNotification)
}

func TestSendPassReady(t *testing.T) {
	s := &recordingSender{}
	require.NoError(t, NewPassMailer(s, "").SendPassReady(context.Background(), issuedPurchase()))
	assert.Len(t, s.sent, 1)

	failing := &recordingSender{err: errors.New("smtp: 421 try later")}
	err := NewPassMailer(failing, "").SendPassReady(context.Background(), issuedPurchase())
	assert.ErrorIs(t, err, passes.ErrNotification)
}

func TestSendPassReady_AppliesTimeout(t *testing.T) {
	var deadline time.Time
	s := senderFunc(func(ctx context.Context, _ Message) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	m := NewPassMailer(s, "").WithTimeout(5 * time.Second)

	require.NoError(t, m.SendPassReady(context.Background(), issuedPurchase()))
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestVerifyURL(t *testing.T) {
	assert.Equal(t, "https://pass.example.com/verify?id=abc", VerifyURL("https://pass.example.com/", "abc"))
}
