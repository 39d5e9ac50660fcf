package businesses

import (
	"context"
	"errors"
	"time"

	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/tags"
)

var (
	ErrNotFound          = errors.New("business not found")
	ErrInvalidReference  = errors.New("business references an unknown owner, category or tag")
	QueryTimeoutDuration = time.Second * 5
)

type Business struct {
	ID          int64                `json:"id"`
	OwnerID     int64                `json:"owner_id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Location    string               `json:"location"`
	Latitude    *float64             `json:"latitude"`
	Longitude   *float64             `json:"longitude"`
	ImageURL    *string              `json:"image_url"`
	IsPremium   bool                 `json:"is_premium"`
	CategoryID  *int64               `json:"category_id"`
	Category    *categories.Category `json:"category"`
	Tags        []tags.Tag           `json:"tags"`
	TagIDs      []int64              `json:"-"` // used by Create only
	CreatedAt   time.Time            `json:"created_at"`
}

// ListFilter narrows the listing. Zero values mean "no filter": a nil
// CategoryID, an empty TagIDs slice and a blank Query each match every business.
type ListFilter struct {
	CategoryID *int64
	TagIDs     []int64
	Query      string
}

type Store interface {
	Create(ctx context.Context, b *Business) error
	GetByID(ctx context.Context, id int64) (*Business, error)
	List(ctx context.Context, filter ListFilter) ([]Business, error)
}
