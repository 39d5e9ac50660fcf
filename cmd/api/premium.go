package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"biznesnet/internal/domain/businesses"
	"biznesnet/internal/domain/premium"
	"biznesnet/internal/mailer"
	"biznesnet/internal/metrics"
	"biznesnet/internal/payments"
)

const maxWebhookBytes = 64 << 10

// PremiumPageResponse is what a client needs to render the upgrade page.
type PremiumPageResponse struct {
	Business       *businesses.Business `json:"business"`
	PriceMinor     int64                `json:"price_minor"`
	Currency       string               `json:"currency"`
	Provider       string               `json:"provider"`
	PublishableKey string               `json:"publishable_key,omitempty"`
	Error          string               `json:"error,omitempty"`
}

func (app *application) premiumPage(b *businesses.Business) PremiumPageResponse {
	page := PremiumPageResponse{
		Business:   b,
		PriceMinor: app.config.payment.priceMinor,
		Currency:   app.config.payment.currency,
		Provider:   app.config.payment.provider,
	}
	if page.Provider == "stripe" {
		page.PublishableKey = app.config.payment.stripe.publicKey
	}
	return page
}

// ownsBusiness answers 403 and returns false unless the caller owns the
// business in context.
func (app *application) ownsBusiness(w http.ResponseWriter, r *http.Request) bool {
	business := getBusinessFromContext(r)
	user := getUserFromContext(r)

	if user == nil || user.ID != business.OwnerID {
		app.forbiddenResponse(w, r, businessPath(business.ID))
		return false
	}
	return true
}

// premiumPageHandler godoc
//
//	@Summary		Premium upgrade page
//	@Description	Price, currency and provider for upgrading a business. Owner only.
//	@Tags			premium
//	@Produce		json
//	@Param			businessID	path		int	true	"Business ID"
//	@Success		200			{object}	PremiumPageResponse
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/premium [get]
func (app *application) premiumPageHandler(w http.ResponseWriter, r *http.Request) {
	if !app.ownsBusiness(w, r) {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.premiumPage(getBusinessFromContext(r))); err != nil {
		app.internalServerError(w, r, err)
	}
}

// premiumCheckoutHandler godoc
//
//	@Summary		Start a premium checkout
//	@Description	Creates a checkout with the configured payment provider and redirects to it. Owner only.
//	@Tags			premium
//	@Produce		json
//	@Param			businessID	path	int	true	"Business ID"
//	@Success		303
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Failure		502	{object}	PremiumPageResponse
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/premium [post]
func (app *application) premiumCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if !app.ownsBusiness(w, r) {
		return
	}

	business := getBusinessFromContext(r)
	user := getUserFromContext(r)

	if business.IsPremium {
		app.conflictResponse(w, r, errors.New("business is already premium"))
		return
	}

	cfg := app.config.payment
	reference := app.references.Generate(business.ID)

	req := payments.PaymentRequest{
		TransactionID: reference,
		AmountMinor:   cfg.priceMinor,
		Currency:      cfg.currency,
		ProductName:   "Premium for " + business.Name,
		SuccessURL:    app.listingURL() + "?success=true",
		CancelURL:     app.listingURL() + "?cancelled=true",
		CustomerName:  user.Username,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"business_id": strconv.FormatInt(business.ID, 10),
			"reference":   reference,
		},
	}

	ctx := r.Context()

	resp, err := app.payments.InitiatePayment(ctx, cfg.provider, req)
	if err != nil {
		app.logger.Errorw("premium checkout failed", "business_id", business.ID, "provider", cfg.provider, "error", err)
		metrics.RecordPremiumCheckout(cfg.provider, "failed")

		page := app.premiumPage(business)
		page.Error = "We could not reach the payment provider. Please try again later."
		if err := app.jsonResponse(w, http.StatusBadGateway, page); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	checkout := &premium.Checkout{
		BusinessID:  business.ID,
		UserID:      user.ID,
		Provider:    cfg.provider,
		SessionID:   resp.SessionID,
		Reference:   reference,
		AmountMinor: cfg.priceMinor,
		Currency:    cfg.currency,
	}
	if err := app.store.Premium.CreatePending(ctx, checkout); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	metrics.RecordPremiumCheckout(cfg.provider, "initiated")
	app.logger.Infow("premium checkout started", "business_id", business.ID, "provider", cfg.provider, "reference", reference)

	http.Redirect(w, r, resp.PaymentURL, http.StatusSeeOther)
}

// stripeWebhookHandler godoc
//
//	@Summary		Stripe webhook
//	@Description	Receives Stripe events. A paid checkout.session.completed flags the business premium.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header	string	true	"Stripe signature"
//	@Success		200
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Router			/payments/stripe/webhook [post]
func (app *application) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.payments.ParseWebhook("stripe", payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrGatewayNotRegistered):
			app.notFoundResponse(w, r, err)
		default:
			app.badRequestResponse(w, r, err)
		}
		return
	}

	if ref := event.Metadata["reference"]; event.Paid && ref != "" {
		if _, err := app.references.Verify(ref); err != nil {
			app.logger.Warnw("webhook with unsigned premium reference", "session_id", event.SessionID, "reference", ref)
			event.Paid = false
		}
	}

	if event.Paid && event.SessionID != "" {
		if err := app.confirmPremium(r.Context(), "stripe", event.SessionID); err != nil {
			if !errors.Is(err, premium.ErrNotFound) {
				app.internalServerError(w, r, err)
				return
			}
			// not ours, or created before the checkout row was written
			app.logger.Warnw("webhook for unknown checkout session", "session_id", event.SessionID, "type", event.Type)
		}
	}

	if err := writeJSON(w, http.StatusOK, map[string]bool{"received": true}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// khaltiReturnHandler godoc
//
//	@Summary		Khalti return URL
//	@Description	Khalti sends the payer here. The payment is looked up with Khalti before the business is flagged premium.
//	@Tags			payments
//	@Param			pidx	query	string	true	"Khalti payment id"
//	@Success		303
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Router			/payments/khalti/return [get]
func (app *application) khaltiReturnHandler(w http.ResponseWriter, r *http.Request) {
	pidx := strings.TrimSpace(r.URL.Query().Get("pidx"))
	if pidx == "" {
		app.badRequestResponse(w, r, errors.New("pidx is required"))
		return
	}

	ctx := r.Context()

	res, err := app.payments.VerifyPayment(ctx, "khalti", payments.PaymentVerifyRequest{
		TransactionID: pidx,
		Data:          map[string]string{"pidx": pidx},
	})
	if err != nil {
		if errors.Is(err, payments.ErrGatewayNotRegistered) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Errorw("khalti lookup failed", "pidx", pidx, "error", err)
		http.Redirect(w, r, app.listingURL()+"?cancelled=true", http.StatusSeeOther)
		return
	}

	if !res.Success {
		app.logger.Infow("khalti payment not completed", "pidx", pidx, "state", res.State)
		http.Redirect(w, r, app.listingURL()+"?cancelled=true", http.StatusSeeOther)
		return
	}

	if err := app.confirmPremium(ctx, "khalti", pidx); err != nil {
		if !errors.Is(err, premium.ErrNotFound) {
			app.internalServerError(w, r, err)
			return
		}
		app.logger.Warnw("khalti return for unknown checkout", "pidx", pidx)
		http.Redirect(w, r, app.listingURL()+"?cancelled=true", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, app.listingURL()+"?success=true", http.StatusSeeOther)
}

// confirmPremium marks the checkout paid, which flags its business premium,
// then tells the owner. Repeated confirmations of a paid session only log.
func (app *application) confirmPremium(ctx context.Context, provider, sessionID string) error {
	businessID, activated, err := app.store.Premium.MarkPaid(ctx, sessionID)
	if err != nil {
		return err
	}
	if !activated {
		app.logger.Infow("premium checkout already confirmed", "business_id", businessID, "provider", provider, "session_id", sessionID)
		return nil
	}

	metrics.RecordPremiumCheckout(provider, "paid")
	app.logger.Infow("business upgraded to premium", "business_id", businessID, "provider", provider)

	app.sendPremiumMail(ctx, businessID)
	return nil
}

func (app *application) sendPremiumMail(ctx context.Context, businessID int64) {
	if app.mailer == nil {
		return
	}

	business, err := app.store.Businesses.GetByID(ctx, businessID)
	if err != nil {
		app.logger.Errorw("premium mail: load business", "business_id", businessID, "error", err)
		return
	}
	owner, err := app.store.Users.GetByID(ctx, business.OwnerID)
	if err != nil {
		app.logger.Errorw("premium mail: load owner", "business_id", businessID, "error", err)
		return
	}

	vars := struct {
		Username     string
		BusinessName string
		BusinessURL  string
	}{
		Username:     owner.Username,
		BusinessName: business.Name,
		BusinessURL:  app.businessURL(business.ID),
	}

	if err := app.mailer.Send(mailer.PremiumActivatedTemplate, owner.Username, owner.Email, vars); err != nil {
		app.logger.Errorw("error sending premium email", "business_id", businessID, "error", err)
	}
}
