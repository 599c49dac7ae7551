package purchases

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"pass-app/internal/domain/passes"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type Store interface {
	Upsert(ctx context.Context, p *passes.Purchase) (*passes.Purchase, error)
	FindBySessionID(ctx context.Context, sessionID string) (*passes.Purchase, error)
	MarkIssued(ctx context.Context, sessionID string, pass passes.IssuedPass) error
	MarkEmailSent(ctx context.Context, sessionID string, at time.Time) error
	SetReceiptURL(ctx context.Context, sessionID, url string) error
}

type Issuer interface {
	Issue(ctx context.Context, req passes.IssueRequest) (passes.IssuedPass, error)
}

type Notifier interface {
	SendPassReady(ctx context.Context, p *passes.Purchase) error
}

type ReceiptFinder interface {
	ReceiptURL(ctx context.Context, paymentIntentID string) (string, error)
}

type Dependencies struct {
	Store    Store
	Issuer   Issuer
	Notifier Notifier
	Receipts ReceiptFinder // optional
	Logger   *zap.Logger
}

// Reconciler finalizes purchases from verified checkout completion events.
// It keeps no state between calls; the store's upsert is the only point of
// mutual exclusion, so duplicate or concurrent deliveries are safe.
type Reconciler struct {
	store    Store
	issuer   Issuer
	notifier Notifier
	receipts ReceiptFinder
	log      *zap.Logger
	text     *bluemonday.Policy
	now      func() time.Time
}

func NewReconciler(deps Dependencies) *Reconciler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		store:    deps.Store,
		issuer:   deps.Issuer,
		notifier: deps.Notifier,
		receipts: deps.Receipts,
		log:      log,
		text:     bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// Outcome summarizes one reconciliation pass. Errors holds every non-fatal
// failure in the order it happened.
type Outcome struct {
	SessionID string
	PassID    string
	Status    string
	Persisted bool
	Issued    bool
	Emailed   bool
	Errors    []error
}

func (o *Outcome) fail(err error) {
	o.Errors = append(o.Errors, err)
}

// Err joins the collected failures, nil when everything succeeded.
func (o Outcome) Err() error {
	return errors.Join(o.Errors...)
}

// Reconcile records the purchase and then attempts pass issuance and the
// confirmation email. It never returns an error: every failure after a
// verified payment is logged and reported through the Outcome, and the
// caller acknowledges the event regardless.
func (r *Reconciler) Reconcile(ctx context.Context, ev passes.CompletionEvent) Outcome {
	out := Outcome{SessionID: ev.SessionID}
	log := r.log.With(zap.String("session_id", ev.SessionID), zap.String("event_id", ev.EventID))

	if ev.SessionID == "" {
		err := fmt.Errorf("%w: event carries no session id", passes.ErrPersistence)
		log.Error("Cannot record purchase", zap.Error(err))
		out.fail(err)
		return out
	}

	purchase, problems := r.purchaseFromEvent(ev)
	out.PassID = purchase.PassID
	log = log.With(zap.String("pass_id", purchase.PassID))
	for _, p := range problems {
		log.Warn("Incomplete checkout metadata, recording with defaults", zap.Error(p))
		out.fail(p)
	}

	stored, err := r.store.Upsert(ctx, purchase)
	if err != nil {
		log.Error("Failed to record purchase",
			zap.Error(err),
			zap.String("customer_email", purchase.CustomerEmail),
			zap.String("pass_tier", purchase.PassTier),
			zap.String("payment_intent_id", ev.PaymentIntentID),
		)
		out.fail(err)
		return out
	}
	out.Persisted = true
	out.Status = stored.Status
	log.Info("Purchase recorded", zap.String("status", stored.Status))

	if !passes.OnHappyPath(stored.Status) {
		log.Info("Purchase under administrative status, skipping fulfilment", zap.String("status", stored.Status))
		return out
	}
	if !passes.Advanced(stored.Status, passes.StatusPaid) {
		log.Info("Payment not settled yet, waiting for async confirmation")
		return out
	}

	r.fulfil(ctx, log, stored, false, &out)
	return out
}

// Resend is the operator's remediation path: issue the pass if it never
// was, then send the confirmation again even if one already went out.
func (r *Reconciler) Resend(ctx context.Context, sessionID string) (Outcome, error) {
	out := Outcome{SessionID: sessionID}

	stored, err := r.store.FindBySessionID(ctx, sessionID)
	if err != nil {
		return out, err
	}
	out.PassID = stored.PassID
	out.Status = stored.Status
	out.Persisted = true

	if !passes.OnHappyPath(stored.Status) || !passes.Advanced(stored.Status, passes.StatusPaid) {
		return out, fmt.Errorf("%w: cannot fulfil a purchase in status %q", passes.ErrInvalidStatus, stored.Status)
	}

	log := r.log.With(zap.String("session_id", sessionID), zap.String("pass_id", stored.PassID), zap.Bool("resend", true))
	r.fulfil(ctx, log, stored, true, &out)
	return out, nil
}

func (r *Reconciler) fulfil(ctx context.Context, log *zap.Logger, p *passes.Purchase, force bool, out *Outcome) {
	link := r.ensurePass(ctx, log, p, out)
	if link == "" {
		log.Warn("No pass link available, skipping email")
		return
	}

	r.attachReceipt(ctx, log, p)

	if p.EmailSentAt != nil && !force {
		log.Info("Confirmation already sent", zap.Time("email_sent_at", *p.EmailSentAt))
		return
	}
	if p.CustomerEmail == "" {
		err := fmt.Errorf("%w: no customer email", passes.ErrNotification)
		log.Warn("Cannot send confirmation", zap.Error(err))
		out.fail(err)
		return
	}

	if err := r.notifier.SendPassReady(ctx, p); err != nil {
		log.Error("Failed to send confirmation email",
			zap.Error(err),
			zap.String("customer_email", p.CustomerEmail),
			zap.String("pass_link_url", link),
		)
		out.fail(err)
		return
	}
	out.Emailed = true

	sentAt := r.now()
	if err := r.store.MarkEmailSent(ctx, p.StripeSessionID, sentAt); err != nil {
		log.Error("Email sent but not recorded", zap.Error(err))
		out.fail(err)
		return
	}
	p.EmailSentAt = &sentAt
	if passes.OnHappyPath(p.Status) && !passes.Advanced(p.Status, passes.StatusEmailSent) {
		p.Status = passes.StatusEmailSent
	}
	out.Status = p.Status
	log.Info("Confirmation email sent", zap.String("customer_email", p.CustomerEmail))
}

// ensurePass returns the stored link or obtains one from the issuer.
// An empty result means the email step must be skipped.
func (r *Reconciler) ensurePass(ctx context.Context, log *zap.Logger, p *passes.Purchase, out *Outcome) string {
	if p.PassLinkURL != nil && *p.PassLinkURL != "" {
		log.Info("Pass already issued, reusing link")
		out.Issued = true
		return *p.PassLinkURL
	}
	if p.ExpiryDate == nil {
		err := fmt.Errorf("%w: no expiry, pass cannot be issued", passes.ErrIssuer)
		log.Warn("Skipping pass issuance", zap.Error(err))
		out.fail(err)
		return ""
	}

	req := passes.IssueRequest{
		PassID:     p.PassID,
		SessionID:  p.StripeSessionID,
		HolderName: p.HolderName(),
		Email:      p.CustomerEmail,
		Tier:       p.PassTier,
		Expiry:     *p.ExpiryDate,
	}
	if p.CustomerPhone != nil {
		req.Phone = *p.CustomerPhone
	}

	issued, err := r.issuer.Issue(ctx, req)
	if err != nil {
		log.Error("Pass issuance failed, reissue manually",
			zap.Error(err),
			zap.String("pass_tier", p.PassTier),
			zap.Time("expiry", *p.ExpiryDate),
			zap.String("customer_email", p.CustomerEmail),
		)
		out.fail(err)
		return ""
	}
	out.Issued = true

	p.PassIssuerID = &issued.IssuerID
	p.PassLinkURL = &issued.LinkURL
	if err := r.store.MarkIssued(ctx, p.StripeSessionID, issued); err != nil {
		// The link is real; still mail it so the customer is not left waiting.
		log.Error("Pass issued but not recorded",
			zap.Error(err),
			zap.String("pass_issuer_id", issued.IssuerID),
			zap.String("pass_link_url", issued.LinkURL),
		)
		out.fail(err)
		return issued.LinkURL
	}
	if !passes.Advanced(p.Status, passes.StatusIssued) {
		p.Status = passes.StatusIssued
	}
	out.Status = p.Status
	log.Info("Pass issued", zap.String("pass_issuer_id", issued.IssuerID))
	return issued.LinkURL
}

func (r *Reconciler) attachReceipt(ctx context.Context, log *zap.Logger, p *passes.Purchase) {
	if r.receipts == nil || p.ReceiptURL != nil || p.StripePaymentIntentID == nil {
		return
	}
	url, err := r.receipts.ReceiptURL(ctx, *p.StripePaymentIntentID)
	if err != nil {
		log.Warn("Receipt lookup failed", zap.Error(err))
		return
	}
	p.ReceiptURL = &url
	if err := r.store.SetReceiptURL(ctx, p.StripeSessionID, url); err != nil {
		log.Warn("Receipt not recorded", zap.Error(err))
	}
}

// plainText strips markup from customer-typed text. bluemonday escapes what
// it keeps, so entities are decoded back; templates escape on output.
func (r *Reconciler) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.text.Sanitize(s)))
}

// purchaseFromEvent maps the event onto a Purchase row. Metadata problems are
// returned alongside a best-effort row rather than instead of it: the payment
// went through, so a partial record beats none.
func (r *Reconciler) purchaseFromEvent(ev passes.CompletionEvent) (*passes.Purchase, []error) {
	var problems []error

	p := &passes.Purchase{
		StripeSessionID: ev.SessionID,
		CustomerEmail:   ev.CustomerEmail,
		PassID:          passes.DerivePassID(ev.SessionID),
		PriceUSD:        float64(ev.AmountTotal) / 100.0,
		Status:          passes.StatusPaid,
	}
	if ev.PaymentStatus == passes.PaymentUnpaid {
		p.Status = passes.StatusCreated
	}
	if ev.PaymentIntentID != "" {
		p.StripePaymentIntentID = &ev.PaymentIntentID
	}
	if ev.CustomerEmail == "" {
		problems = append(problems, fmt.Errorf("%w: customer email missing", passes.ErrInvalidMetadata))
	}

	phone := ev.CustomerPhone
	if phone == "" {
		phone = ev.Mobile
	}
	if phone != "" {
		p.CustomerPhone = &phone
	}

	name := ev.HolderName
	if name == "" {
		name = ev.CustomerName
	}
	if name = r.plainText(name); name != "" {
		p.PassHolderName = &name
	}

	tier, ok := passes.NormalizeTier(ev.PassType)
	if !ok {
		problems = append(problems, fmt.Errorf("%w: unknown pass_type %q", passes.ErrInvalidMetadata, ev.PassType))
	}
	p.PassTier = tier

	start, err := passes.ParseStartDate(ev.StartDate)
	if err != nil {
		problems = append(problems, err)
	} else {
		p.StartDate = &start
	}

	days, err := passes.ParseValidityDays(ev.ValidityDays)
	if err != nil {
		problems = append(problems, err)
	} else {
		p.ValidityDays = &days
		if want := passes.TierDays(tier); want != 0 && want != days {
			r.log.Warn("validity_days disagrees with pass_type",
				zap.String("session_id", ev.SessionID),
				zap.String("pass_tier", tier),
				zap.Int("validity_days", days),
				zap.Int("tier_days", want),
			)
		}
	}

	if p.StartDate != nil && p.ValidityDays != nil {
		exp, err := passes.ComputeExpiry(*p.StartDate, *p.ValidityDays)
		if err != nil {
			problems = append(problems, err)
		} else {
			p.ExpiryDate = &exp
		}
	}

	return p, problems
}
