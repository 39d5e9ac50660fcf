package payments

import (
	"context"
	"fmt"
)

type PaymentManager struct {
	gateways map[string]PaymentGateway
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{gateways: make(map[string]PaymentGateway)}
}

func (m *PaymentManager) RegisterGateway(name string, gateway PaymentGateway) {
	m.gateways[name] = gateway
}

func (m *PaymentManager) Has(name string) bool {
	_, ok := m.gateways[name]
	return ok
}

func (m *PaymentManager) gateway(name string) (PaymentGateway, error) {
	g, ok := m.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotRegistered, name)
	}
	return g, nil
}

func (m *PaymentManager) InitiatePayment(ctx context.Context, method string, req PaymentRequest) (PaymentResponse, error) {
	g, err := m.gateway(method)
	if err != nil {
		return PaymentResponse{}, err
	}
	return g.InitiatePayment(ctx, req)
}

func (m *PaymentManager) VerifyPayment(ctx context.Context, method string, req PaymentVerifyRequest) (PaymentVerifyResponse, error) {
	g, err := m.gateway(method)
	if err != nil {
		return PaymentVerifyResponse{}, err
	}
	return g.VerifyPayment(ctx, req)
}

func (m *PaymentManager) ParseWebhook(method string, payload []byte, signatureHeader string) (WebhookEvent, error) {
	g, err := m.gateway(method)
	if err != nil {
		return WebhookEvent{}, err
	}
	p, ok := g.(WebhookParser)
	if !ok {
		return WebhookEvent{}, fmt.Errorf("%w: %s", ErrWebhookUnsupported, method)
	}
	return p.ParseWebhook(payload, signatureHeader)
}
