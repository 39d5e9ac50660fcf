package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biznesnet/internal/domain/premium"
	"biznesnet/internal/mailer"
	"biznesnet/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPremiumPageOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	other := env.addUser(t, "other")
	env.addBusiness(t, owner, "Corner Cafe")

	req := httptest.NewRequest(http.MethodGet, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, owner))
	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Data PremiumPageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(5000), body.Data.PriceMinor)
	assert.Equal(t, "usd", body.Data.Currency)
	assert.Equal(t, "fake", body.Data.Provider)
	assert.Equal(t, "Corner Cafe", body.Data.Business.Name)

	req = httptest.NewRequest(http.MethodGet, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, other))
	rr = env.do(req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "/v1/businesses/1", rr.Header().Get("Location"))
}

func TestPremiumCheckoutNonOwnerNeverReachesGateway(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	other := env.addUser(t, "other")
	env.addBusiness(t, owner, "Corner Cafe")

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, other))
	rr := env.do(req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/v1/businesses/1", body["location"])
	assert.Zero(t, env.gateway.calls)
	assert.Empty(t, env.premium.checkouts)
}

func TestPremiumCheckoutRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, owner))
	rr := env.do(req)

	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "https://pay.example.com/session/sess_1", rr.Header().Get("Location"))

	assert.Equal(t, 1, env.gateway.calls)
	assert.Equal(t, "Premium for Corner Cafe", env.gateway.last.ProductName)
	assert.Equal(t, int64(5000), env.gateway.last.AmountMinor)
	assert.Equal(t, "http://api.test/v1/businesses?success=true", env.gateway.last.SuccessURL)
	assert.Equal(t, "http://api.test/v1/businesses?cancelled=true", env.gateway.last.CancelURL)
	assert.Equal(t, "1", env.gateway.last.Metadata["business_id"])

	checkout := env.premium.checkouts["sess_1"]
	require.NotNil(t, checkout)
	assert.Equal(t, premium.StatusPending, checkout.Status)
	assert.Equal(t, env.gateway.last.TransactionID, checkout.Reference)
	assert.False(t, env.businesses.byID[1].IsPremium)
}

func TestPremiumCheckoutGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.gateway.err = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, owner))
	rr := env.do(req)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	var body struct {
		Data PremiumPageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Error)
	assert.Equal(t, int64(5000), body.Data.PriceMinor)
	assert.Empty(t, env.premium.checkouts)
}

func TestPremiumCheckoutAlreadyPremium(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	b := env.addBusiness(t, owner, "Corner Cafe")
	b.IsPremium = true

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/1/premium", nil)
	req.Header.Set("Authorization", env.token(t, owner))

	assert.Equal(t, http.StatusConflict, env.do(req).Code)
	assert.Zero(t, env.gateway.calls)
}

func signStripe(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompleted(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {"id": %q, "object": "checkout.session", "payment_status": "paid"}}
}`, sessionID))
}

func webhookRequest(payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	return req
}

func TestStripeWebhookFlipsPremium(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.premium.checkouts["cs_test_1"] = &premium.Checkout{BusinessID: 1, SessionID: "cs_test_1", Status: premium.StatusPending}

	payload := checkoutCompleted("cs_test_1")
	rr := env.do(webhookRequest(payload, signStripe(payload, testWebhookSecret)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, env.businesses.byID[1].IsPremium)
	assert.Equal(t, premium.StatusPaid, env.premium.checkouts["cs_test_1"].Status)
	assert.Equal(t, []string{mailer.PremiumActivatedTemplate + ":owner@example.com"}, env.mailer.sent)
}

func TestStripeWebhookRedeliveryMailsOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.premium.checkouts["cs_1"] = &premium.Checkout{BusinessID: 1, SessionID: "cs_1", Status: premium.StatusPending}

	payload := checkoutCompleted("cs_1")
	for i := 0; i < 3; i++ {
		rr := env.do(webhookRequest(payload, signStripe(payload, testWebhookSecret)))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	assert.True(t, env.businesses.byID[1].IsPremium)
	assert.Equal(t, []string{mailer.PremiumActivatedTemplate + ":owner@example.com"}, env.mailer.sent)
}

func checkoutCompletedWithReference(sessionID, reference string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_2",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {"id": %q, "object": "checkout.session", "payment_status": "paid",
    "metadata": {"business_id": "1", "reference": %q}}}
}`, sessionID, reference))
}

func TestStripeWebhookChecksReference(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.premium.checkouts["cs_1"] = &premium.Checkout{BusinessID: 1, SessionID: "cs_1", Status: premium.StatusPending}

	forged := premium.NewReferenceGenerator("someone-else").Generate(1)
	payload := checkoutCompletedWithReference("cs_1", forged)
	rr := env.do(webhookRequest(payload, signStripe(payload, testWebhookSecret)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, env.businesses.byID[1].IsPremium)

	payload = checkoutCompletedWithReference("cs_1", env.app.references.Generate(1))
	rr = env.do(webhookRequest(payload, signStripe(payload, testWebhookSecret)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.businesses.byID[1].IsPremium)
}

func TestStripeWebhookBadSignature(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.premium.checkouts["cs_test_1"] = &premium.Checkout{BusinessID: 1, SessionID: "cs_test_1", Status: premium.StatusPending}

	payload := checkoutCompleted("cs_test_1")
	for _, sig := range []string{"", "t=1,v1=deadbeef", signStripe(payload, "whsec_wrong")} {
		rr := env.do(webhookRequest(payload, sig))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}

	assert.False(t, env.businesses.byID[1].IsPremium)
	assert.Equal(t, premium.StatusPending, env.premium.checkouts["cs_test_1"].Status)
}

func TestStripeWebhookUnknownSessionIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	payload := checkoutCompleted("cs_unknown")
	rr := env.do(webhookRequest(payload, signStripe(payload, testWebhookSecret)))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSuccessRedirectAloneDoesNotFlipPremium(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.premium.checkouts["sess_1"] = &premium.Checkout{BusinessID: 1, SessionID: "sess_1", Status: premium.StatusPending}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/v1/businesses?success=true", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, env.businesses.byID[1].IsPremium)
}

func TestKhaltiReturn(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner")
	env.addBusiness(t, owner, "Corner Cafe")
	env.app.payments.RegisterGateway("khalti", env.gateway)
	env.premium.checkouts["pidx_1"] = &premium.Checkout{BusinessID: 1, SessionID: "pidx_1", Status: premium.StatusPending}

	env.gateway.verified = payments.PaymentVerifyResponse{Success: false, State: "User canceled"}
	rr := env.do(httptest.NewRequest(http.MethodGet, "/v1/payments/khalti/return?pidx=pidx_1", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "http://api.test/v1/businesses?cancelled=true", rr.Header().Get("Location"))
	assert.False(t, env.businesses.byID[1].IsPremium)

	env.gateway.verified = payments.PaymentVerifyResponse{Success: true, State: "Completed"}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/payments/khalti/return?pidx=pidx_1", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "http://api.test/v1/businesses?success=true", rr.Header().Get("Location"))
	assert.True(t, env.businesses.byID[1].IsPremium)
	assert.Len(t, env.mailer.sent, 1)

	// reloading the return page keeps the redirect but sends nothing new
	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/payments/khalti/return?pidx=pidx_1", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "http://api.test/v1/businesses?success=true", rr.Header().Get("Location"))
	assert.Len(t, env.mailer.sent, 1)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/payments/khalti/return", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
