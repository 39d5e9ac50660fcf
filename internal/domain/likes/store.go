package likes

import (
	"context"
	"errors"
	"fmt"

	"biznesnet/internal/database"
	"biznesnet/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

// maxToggleAttempts bounds the retries when a concurrent request deletes the
// row between our insert attempt and the locking read.
const maxToggleAttempts = 5

var errRowVanished = errors.New("like row vanished during toggle")

type Repository struct {
	db dbx.Beginner
}

func NewRepository(db dbx.Beginner) *Repository {
	return &Repository{db: db}
}

// Toggle applies v to the (user, business) pair and returns the outcome
// together with the business totals read in the same transaction.
func (r *Repository) Toggle(ctx context.Context, userID, businessID int64, v Value) (*ToggleResult, error) {
	if v != Like && v != Dislike {
		return nil, ErrInvalidValue
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		result *ToggleResult
		err    error
	)
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		result = &ToggleResult{}
		err = database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
			status, err := applyToggle(ctx, tx, userID, businessID, v)
			if err != nil {
				return err
			}
			result.Status = status
			return countReactions(ctx, tx, businessID, &result.TotalLikes, &result.TotalDislikes)
		})
		if !errors.Is(err, errRowVanished) {
			break
		}
	}
	if err != nil {
		if _, ok := database.IsForeignKeyViolation(err); ok {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return result, nil
}

func applyToggle(ctx context.Context, tx pgx.Tx, userID, businessID int64, v Value) (Status, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO likes (user_id, business_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, business_id) DO NOTHING
		RETURNING id
	`, userID, businessID, int16(v)).Scan(&id)
	if err == nil {
		return StatusCreated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var stored int16
	err = tx.QueryRow(ctx, `
		SELECT value FROM likes
		WHERE user_id = $1 AND business_id = $2
		FOR UPDATE
	`, userID, businessID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errRowVanished
		}
		return "", err
	}

	next, status := Transition(stateOf(Value(stored)), v)
	if next == None {
		_, err = tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND business_id = $2`, userID, businessID)
	} else {
		_, err = tx.Exec(ctx, `UPDATE likes SET value = $3 WHERE user_id = $1 AND business_id = $2`,
			userID, businessID, int16(v))
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func countReactions(ctx context.Context, q dbx.Querier, businessID int64, likes, dislikes *int64) error {
	return q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE value = 1),
			COUNT(*) FILTER (WHERE value = -1)
		FROM likes
		WHERE business_id = $1
	`, businessID).Scan(likes, dislikes)
}

func (r *Repository) Counts(ctx context.Context, businessID int64) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var likes, dislikes int64
	if err := countReactions(ctx, r.db, businessID, &likes, &dislikes); err != nil {
		return 0, 0, fmt.Errorf("count likes: %w", err)
	}
	return likes, dislikes, nil
}
