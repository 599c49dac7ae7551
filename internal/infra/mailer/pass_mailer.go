package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"pass-app/internal/domain/passes"
)

//go:embed templates/*.html
var templateFS embed.FS

var passReadyTmpl = template.Must(template.ParseFS(templateFS, "templates/pass_ready.html"))

const passReadySubject = "Your pass is ready – add it to your wallet"

// PassMailer renders and sends the purchase confirmation.
type PassMailer struct {
	sender  Sender
	baseURL string
	timeout time.Duration
}

// NewPassMailer builds a mailer; baseURL is the public site root used for
// the verify link and QR image and may be empty.
func NewPassMailer(sender Sender, baseURL string) *PassMailer {
	return &PassMailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// WithTimeout bounds each send; zero leaves the caller's deadline alone.
func (m *PassMailer) WithTimeout(d time.Duration) *PassMailer {
	m.timeout = d
	return m
}

type passReadyView struct {
	HolderName  string
	TierLabel   string
	ValidFrom   string
	ValidUntil  string
	PassID      string
	PassLinkURL string
	ReceiptURL  string
	VerifyURL   string
	QRImageURL  string
}

// ComposePassReady builds the confirmation for p. The purchase must carry a
// pass link and an email address.
func (m *PassMailer) ComposePassReady(p *passes.Purchase) (Message, error) {
	if p.CustomerEmail == "" || p.PassLinkURL == nil || *p.PassLinkURL == "" {
		return Message{}, fmt.Errorf("%w: purchase %s lacks email or pass link", passes.ErrNotification, p.StripeSessionID)
	}

	view := passReadyView{
		HolderName:  p.HolderName(),
		TierLabel:   passes.TierLabel(p.PassTier),
		ValidFrom:   passes.FormatDate(p.StartDate),
		ValidUntil:  passes.FormatDate(p.ExpiryDate),
		PassID:      p.PassID,
		PassLinkURL: *p.PassLinkURL,
	}
	if p.ReceiptURL != nil {
		view.ReceiptURL = *p.ReceiptURL
	}
	if m.baseURL != "" {
		view.VerifyURL = VerifyURL(m.baseURL, p.PassID)
		view.QRImageURL = m.baseURL + "/passes/" + url.PathEscape(p.PassID) + "/qr.png"
	}

	var buf bytes.Buffer
	if err := passReadyTmpl.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("%w: render template: %v", passes.ErrNotification, err)
	}

	text := fmt.Sprintf("Your %s is valid from %s to %s.\nAdd it to your wallet: %s\n",
		view.TierLabel, view.ValidFrom, view.ValidUntil, view.PassLinkURL)

	return Message{
		To:      p.CustomerEmail,
		Subject: passReadySubject,
		HTML:    buf.String(),
		Text:    text,
	}, nil
}

func (m *PassMailer) SendPassReady(ctx context.Context, p *passes.Purchase) error {
	msg, err := m.ComposePassReady(p)
	if err != nil {
		return err
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", passes.ErrNotification, err)
	}
	return nil
}

// VerifyURL is the public page a venue opens to check a pass.
func VerifyURL(baseURL, passID string) string {
	return strings.TrimRight(baseURL, "/") + "/verify?id=" + url.QueryEscape(passID)
}
