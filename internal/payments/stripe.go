package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeAdapter creates hosted Checkout sessions and verifies the webhook
// deliveries that confirm them.
type StripeAdapter struct {
	api           *client.API
	webhookSecret string
}

// NewStripeAdapter builds an adapter for secretKey. backends may be nil to use
// Stripe's live endpoints.
func NewStripeAdapter(secretKey, webhookSecret string, backends *stripe.Backends) *StripeAdapter {
	return &StripeAdapter{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (s *StripeAdapter) InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if req.TransactionID != "" {
		params.ClientReferenceID = stripe.String(req.TransactionID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return PaymentResponse{}, fmt.Errorf("stripe checkout session %s has no url", sess.ID)
	}

	return PaymentResponse{
		PaymentURL: sess.URL,
		SessionID:  sess.ID,
	}, nil
}

// VerifyPayment retrieves the checkout session named by TransactionID.
func (s *StripeAdapter) VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResponse, error) {
	id := strings.TrimSpace(req.TransactionID)
	if id == "" {
		return PaymentVerifyResponse{}, fmt.Errorf("stripe verify requires a session id")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return PaymentVerifyResponse{}, fmt.Errorf("stripe retrieve session: %w", err)
	}

	paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	return PaymentVerifyResponse{
		Success:     paid,
		State:       string(sess.Status),
		Terminal:    sess.Status == stripe.CheckoutSessionStatusComplete || sess.Status == stripe.CheckoutSessionStatusExpired,
		ProviderRef: sess.ID,
	}, nil
}

// ParseWebhook checks the Stripe-Signature header and decodes checkout
// session events. Other event types are returned with only Type set.
func (s *StripeAdapter) ParseWebhook(payload []byte, signatureHeader string) (WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return WebhookEvent{}, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = sess.ID
		out.Paid = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
		out.Metadata = sess.Metadata
	}
	return out, nil
}
