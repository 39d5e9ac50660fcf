package storage

import (
	"context"
	"fmt"

	"biznesnet/internal/domain/businesses"
	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/comments"
	"biznesnet/internal/domain/likes"
	"biznesnet/internal/domain/premium"
	"biznesnet/internal/domain/ratings"
	"biznesnet/internal/domain/tags"
	"biznesnet/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Taxonomy struct {
	Categories categories.Store
	Tags       tags.Store
}

type Feedback struct {
	Comments comments.Store
	Ratings  ratings.Store
	Likes    likes.Store
}

type Container struct {
	pool       *pgxpool.Pool
	Users      users.Store
	Businesses businesses.Store
	Taxonomy   Taxonomy
	Feedback   Feedback
	Premium    premium.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:       db,
		Users:      users.NewRepository(db),
		Businesses: businesses.NewRepository(db),
		Taxonomy: Taxonomy{
			Categories: categories.NewRepository(db),
			Tags:       tags.NewRepository(db),
		},
		Feedback: Feedback{
			Comments: comments.NewRepository(db),
			Ratings:  ratings.NewRepository(db),
			Likes:    likes.NewRepository(db),
		},
		Premium: premium.NewRepository(db),
	}
}

// Ping reports whether the database is reachable. Containers built by tests
// without a pool are always healthy.
func (c *Container) Ping(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}
