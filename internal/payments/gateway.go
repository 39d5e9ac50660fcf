package payments

import (
	"context"
	"errors"
)

var (
	ErrGatewayNotRegistered = errors.New("payment gateway not registered")
	ErrWebhookUnsupported   = errors.New("payment gateway does not accept webhooks")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
)

// PaymentGateway defines a common interface for all payment providers
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResponse, error)
}

// WebhookParser is implemented by gateways that push signed events.
type WebhookParser interface {
	ParseWebhook(payload []byte, signatureHeader string) (WebhookEvent, error)
}
