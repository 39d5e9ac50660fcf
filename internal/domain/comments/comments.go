package comments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biznesnet/internal/database"
	"biznesnet/internal/infra/dbx"
)

var (
	ErrNotFound          = errors.New("business not found")
	QueryTimeoutDuration = time.Second * 5
)

type Comment struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	AuthorID   int64     `json:"author_id"`
	Author     string    `json:"author"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, c *Comment) error
	ListByBusiness(ctx context.Context, businessID int64) ([]Comment, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// Create appends a comment. created_at is assigned by the database.
func (r *Repository) Create(ctx context.Context, c *Comment) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO comments (business_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.BusinessID, c.AuthorID, c.Text).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if _, ok := database.IsForeignKeyViolation(err); ok {
			return ErrNotFound
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListByBusiness returns the comments of a business, newest first.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.business_id, c.author_id, u.username, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.business_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.AuthorID, &c.Author, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
