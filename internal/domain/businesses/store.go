package businesses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biznesnet/internal/database"
	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/tags"
	"biznesnet/internal/infra/dbx"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Beginner
}

func NewRepository(db dbx.Beginner) *Repository {
	return &Repository{db: db}
}

const selectBusiness = `
	SELECT
		b.id, b.owner_id, b.name, b.slug, b.description, b.location,
		b.latitude, b.longitude, b.image_url, b.is_premium,
		b.category_id, c.name, b.created_at
	FROM businesses b
	LEFT JOIN categories c ON c.id = b.category_id
`

// Create inserts the business and its tag associations in one transaction.
func (r *Repository) Create(ctx context.Context, b *Business) error {
	if b.Slug == "" {
		b.Slug = slug.Make(b.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO businesses (
				owner_id, name, slug, description, location,
				latitude, longitude, image_url, category_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, is_premium, created_at
		`,
			b.OwnerID, b.Name, b.Slug, b.Description, b.Location,
			b.Latitude, b.Longitude, b.ImageURL, b.CategoryID,
		).Scan(&b.ID, &b.IsPremium, &b.CreatedAt)
		if err != nil {
			return err
		}

		if len(b.TagIDs) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO business_tags (business_id, tag_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, b.ID, b.TagIDs)
		return err
	})
	if err != nil {
		if _, ok := database.IsForeignKeyViolation(err); ok {
			return ErrInvalidReference
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Business, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b, err := scanBusiness(r.db.QueryRow(ctx, selectBusiness+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get business: %w", err)
	}

	list := []Business{*b}
	if err := r.attachTags(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List returns every business matching all supplied filter kinds, in
// insertion order. Each business appears at most once.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Business, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query, args := buildListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	out := []Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildListQuery(filter ListFilter) (string, []any) {
	var (
		where      []string
		args       []any
		argCounter = 1
	)

	if filter.CategoryID != nil {
		where = append(where, fmt.Sprintf("b.category_id = $%d", argCounter))
		args = append(args, *filter.CategoryID)
		argCounter++
	}

	// EXISTS keeps a business with several matching tags from repeating.
	if len(filter.TagIDs) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM business_tags bt WHERE bt.business_id = b.id AND bt.tag_id = ANY($%d))",
			argCounter,
		))
		args = append(args, filter.TagIDs)
		argCounter++
	}

	if q := filter.Query; q != "" {
		where = append(where, fmt.Sprintf(
			"(b.name ILIKE $%[1]d OR b.description ILIKE $%[1]d OR b.location ILIKE $%[1]d)",
			argCounter,
		))
		args = append(args, "%"+escapeLike(q)+"%")
		argCounter++
	}

	query := selectBusiness
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.id"

	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *Repository) attachTags(ctx context.Context, list []Business) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = i
		list[i].Tags = []tags.Tag{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT bt.business_id, t.id, t.name
		FROM business_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.business_id = ANY($1)
		ORDER BY t.id
	`, ids)
	if err != nil {
		return fmt.Errorf("load business tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var businessID int64
		var t tags.Tag
		if err := rows.Scan(&businessID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan business tag: %w", err)
		}
		if i, ok := index[businessID]; ok {
			list[i].Tags = append(list[i].Tags, t)
		}
	}
	return rows.Err()
}

func scanBusiness(row pgx.Row) (*Business, error) {
	var (
		b            Business
		categoryName *string
	)
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Slug,
		&b.Description,
		&b.Location,
		&b.Latitude,
		&b.Longitude,
		&b.ImageURL,
		&b.IsPremium,
		&b.CategoryID,
		&categoryName,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.CategoryID != nil && categoryName != nil {
		b.Category = &categories.Category{ID: *b.CategoryID, Name: *categoryName}
	}
	return &b, nil
}
