package premium

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("checkout session not found")
	QueryTimeoutDuration = time.Second * 5
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Checkout records one premium purchase attempt. SessionID is the provider's
// id for the checkout (Stripe session id, Khalti pidx).
type Checkout struct {
	ID          int64      `json:"id"`
	BusinessID  int64      `json:"business_id"`
	UserID      int64      `json:"user_id"`
	Provider    string     `json:"provider"`
	SessionID   string     `json:"session_id"`
	Reference   string     `json:"reference"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at"`
}

type Store interface {
	CreatePending(ctx context.Context, c *Checkout) error
	MarkPaid(ctx context.Context, sessionID string) (businessID int64, activated bool, err error)
}
