package ratings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"biznesnet/internal/database"
	"biznesnet/internal/infra/dbx"
)

var (
	ErrInvalidStars      = errors.New("stars must be between 1 and 5")
	ErrNotFound          = errors.New("business not found")
	QueryTimeoutDuration = time.Second * 5
)

const (
	MinStars = 1
	MaxStars = 5
)

type Rating struct {
	ID         int64 `json:"id"`
	BusinessID int64 `json:"business_id"`
	UserID     int64 `json:"user_id"`
	Stars      int   `json:"stars"`
}

// Stats summarises the ratings of one business. Average is already rounded
// to one decimal and is 0 when Count is 0.
type Stats struct {
	Average float64 `json:"average_rating"`
	Count   int64   `json:"total_ratings"`
}

type Store interface {
	Upsert(ctx context.Context, r *Rating) error
	Stats(ctx context.Context, businessID int64) (Stats, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// Upsert stores the user's rating, replacing the stars of an earlier one.
func (r *Repository) Upsert(ctx context.Context, rating *Rating) error {
	if rating.Stars < MinStars || rating.Stars > MaxStars {
		return ErrInvalidStars
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO ratings (business_id, user_id, stars)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_id, user_id) DO UPDATE SET stars = EXCLUDED.stars
		RETURNING id
	`, rating.BusinessID, rating.UserID, int16(rating.Stars)).Scan(&rating.ID)
	if err != nil {
		if _, ok := database.IsForeignKeyViolation(err); ok {
			return ErrNotFound
		}
		if _, ok := database.IsCheckViolation(err); ok {
			return ErrInvalidStars
		}
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context, businessID int64) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		avg   float64
		count int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(stars), 0)::float8, COUNT(*)
		FROM ratings
		WHERE business_id = $1
	`, businessID).Scan(&avg, &count)
	if err != nil {
		return Stats{}, fmt.Errorf("rating stats: %w", err)
	}
	return Stats{Average: RoundAverage(avg), Count: count}, nil
}

// RoundAverage rounds to one decimal place. Exact ties go to the even digit,
// so a mean of 1.25 reports 1.2.
func RoundAverage(avg float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(avg, 'f', 1, 64), 64)
	return rounded
}
