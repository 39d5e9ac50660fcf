package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	khaltiSandboxURL    = "https://dev.khalti.com/api/v2"
	khaltiProductionURL = "https://khalti.com/api/v2"
)

// KhaltiAdapter talks to Khalti's ePayment API. Khalti redirects the payer to
// ReturnURL with the pidx appended; VerifyPayment looks that pidx up.
type KhaltiAdapter struct {
	SecretKey  string
	ReturnURL  string
	WebsiteURL string
	BaseURL    string
	httpClient *http.Client
}

func NewKhaltiAdapter(secret, returnURL, websiteURL string, isProd bool) *KhaltiAdapter {
	base := khaltiSandboxURL
	if isProd {
		base = khaltiProductionURL
	}
	return &KhaltiAdapter{
		SecretKey:  secret,
		ReturnURL:  returnURL,
		WebsiteURL: websiteURL,
		BaseURL:    base,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (k *KhaltiAdapter) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Authorization", "key "+k.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, err
}

func (k *KhaltiAdapter) InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	payload := map[string]any{
		"return_url":          k.ReturnURL,
		"website_url":         k.WebsiteURL,
		"amount":              req.AmountMinor,
		"purchase_order_id":   req.TransactionID,
		"purchase_order_name": req.ProductName,
		"customer_info": map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
		},
	}

	status, raw, err := k.post(ctx, "/epayment/initiate/", payload)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("khalti initiate request: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return PaymentResponse{}, fmt.Errorf("khalti initiate failed: http=%d body=%s", status, string(raw))
	}

	var res struct {
		Pidx       string `json:"pidx"`
		PaymentURL string `json:"payment_url"`
		ExpiresAt  string `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return PaymentResponse{}, fmt.Errorf("khalti initiate decode: %w body=%s", err, string(raw))
	}
	if res.Pidx == "" || res.PaymentURL == "" {
		return PaymentResponse{}, fmt.Errorf("khalti initiate: missing pidx or payment_url")
	}

	return PaymentResponse{
		PaymentURL: res.PaymentURL,
		SessionID:  res.Pidx,
		Data: map[string]string{
			"pidx":       res.Pidx,
			"expires_at": res.ExpiresAt,
		},
	}, nil
}

func (k *KhaltiAdapter) VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResponse, error) {
	pidx := strings.TrimSpace(req.Data["pidx"])
	if pidx == "" {
		pidx = strings.TrimSpace(req.TransactionID)
	}
	if pidx == "" {
		return PaymentVerifyResponse{}, fmt.Errorf("khalti verify requires pidx")
	}

	status, raw, err := k.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx})
	if err != nil {
		return PaymentVerifyResponse{}, fmt.Errorf("khalti lookup request: %w", err)
	}

	// Expired and canceled payments come back as 400 with a regular body.
	var res struct {
		Pidx   string `json:"pidx"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return PaymentVerifyResponse{}, fmt.Errorf("khalti lookup decode: http=%d err=%w body=%s", status, err, string(raw))
	}

	state := strings.TrimSpace(res.Status)

	terminal := false
	switch strings.ToLower(state) {
	case "completed", "refunded", "expired", "user canceled", "partially refunded":
		terminal = true
	}

	return PaymentVerifyResponse{
		Success:     strings.EqualFold(state, "Completed"),
		State:       state,
		Terminal:    terminal,
		ProviderRef: pidx,
		Raw: map[string]any{
			"http_status": status,
			"body":        json.RawMessage(raw),
		},
	}, nil
}
