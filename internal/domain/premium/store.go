package premium

import (
	"context"
	"errors"
	"fmt"

	"biznesnet/internal/database"
	"biznesnet/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Beginner
}

func NewRepository(db dbx.Beginner) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePending(ctx context.Context, c *Checkout) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c.Status = StatusPending
	err := r.db.QueryRow(ctx, `
		INSERT INTO premium_checkouts (
			business_id, user_id, provider, session_id, reference, amount_minor, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, c.BusinessID, c.UserID, c.Provider, c.SessionID, c.Reference, c.AmountMinor, c.Currency, c.Status).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create premium checkout: %w", err)
	}
	return nil
}

// MarkPaid confirms the checkout and flags its business premium in one
// transaction. activated is false when the session was already paid, in which
// case nothing is written.
func (r *Repository) MarkPaid(ctx context.Context, sessionID string) (businessID int64, activated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err = database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
			SELECT business_id, status
			FROM premium_checkouts
			WHERE session_id = $1
			FOR UPDATE
		`, sessionID).Scan(&businessID, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status == StatusPaid {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE premium_checkouts
			   SET status = 'paid', paid_at = now()
			 WHERE session_id = $1
		`, sessionID); err != nil {
			return fmt.Errorf("mark checkout paid: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE businesses SET is_premium = TRUE WHERE id = $1`, businessID); err != nil {
			return fmt.Errorf("flag business premium: %w", err)
		}
		activated = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return businessID, activated, nil
}
