package tags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biznesnet/internal/database"
	"biznesnet/internal/infra/dbx"
)

var (
	ErrNotFound          = errors.New("tag not found")
	ErrConflict          = errors.New("a tag with that name already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Store interface {
	List(ctx context.Context) ([]Tag, error)
	Create(ctx context.Context, t *Tag) error
	CountExisting(ctx context.Context, ids []int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, t *Tag) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id`, t.Name).Scan(&t.ID)
	if err != nil {
		if _, ok := database.IsUniqueViolation(err); ok {
			return ErrConflict
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CountExisting reports how many of the given ids exist. Callers pass a
// deduplicated slice.
func (r *Repository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tags WHERE id = ANY($1)`, ids).Scan(&n)
	return n, err
}

// Delete removes the tag and, through the join table's cascade, its
// associations. Businesses are untouched.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
