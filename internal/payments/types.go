package payments

// PaymentRequest describes one purchase. AmountMinor is in the currency's
// smallest unit (cents, paisa).
type PaymentRequest struct {
	TransactionID string
	AmountMinor   int64
	Currency      string
	ProductName   string
	SuccessURL    string
	CancelURL     string
	CustomerName  string
	CustomerEmail string
	Metadata      map[string]string
}

type PaymentResponse struct {
	PaymentURL string
	SessionID  string // Stripe checkout session id, Khalti pidx
	Data       map[string]string
}

type PaymentVerifyRequest struct {
	TransactionID string
	Data          map[string]string
}

type PaymentVerifyResponse struct {
	Success     bool
	State       string
	Terminal    bool
	ProviderRef string
	Raw         map[string]any
}

// WebhookEvent is the provider-neutral view of a verified webhook delivery.
type WebhookEvent struct {
	Type      string
	SessionID string
	Paid      bool
	Metadata  map[string]string
}
