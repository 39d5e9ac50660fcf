package businesses

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

var businessColumns = []string{
	"id", "owner_id", "name", "slug", "description", "location",
	"latitude", "longitude", "image_url", "is_premium",
	"category_id", "name", "created_at",
}

func TestBuildListQueryWithoutFilters(t *testing.T) {
	query, args := buildListQuery(ListFilter{})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY b.id")
	assert.Empty(t, args)
}

func TestBuildListQueryCombinesFiltersWithAnd(t *testing.T) {
	query, args := buildListQuery(ListFilter{
		CategoryID: int64Ptr(2),
		TagIDs:     []int64{1, 3},
		Query:      "Cafe",
	})

	assert.Contains(t, query, "b.category_id = $1")
	assert.Contains(t, query, "bt.tag_id = ANY($2)")
	assert.Contains(t, query, "b.name ILIKE $3 OR b.description ILIKE $3 OR b.location ILIKE $3")
	// two joining the filter kinds, one inside the EXISTS subquery
	assert.Equal(t, 3, strings.Count(query, " AND "))
	require.Len(t, args, 3)
	assert.Equal(t, int64(2), args[0])
	assert.Equal(t, []int64{1, 3}, args[1])
	assert.Equal(t, "%Cafe%", args[2])
}

func TestBuildListQueryTagFilterUsesExists(t *testing.T) {
	query, _ := buildListQuery(ListFilter{TagIDs: []int64{4}})

	// A join on business_tags would repeat businesses with several matching tags.
	assert.Contains(t, query, "EXISTS (SELECT 1 FROM business_tags bt")
	assert.NotContains(t, query, "JOIN business_tags")
}

func TestBuildListQueryMatchesTextAsSent(t *testing.T) {
	query, args := buildListQuery(ListFilter{Query: "cafe "})
	assert.Contains(t, query, "ILIKE $1")
	assert.Equal(t, []any{"%cafe %"}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}

func TestListAttachesTags(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("FROM businesses b").
		WithArgs([]int64{1, 3}).
		WillReturnRows(pgxmock.NewRows(businessColumns).
			AddRow(int64(1), int64(9), "Alpha", "alpha", "", "Tashkent", nil, nil, nil, false, int64Ptr(2), strPtr("Cafes"), now).
			AddRow(int64(2), int64(9), "Beta", "beta", "", "Samarkand", nil, nil, nil, true, nil, nil, now))
	mock.ExpectQuery("FROM business_tags bt").
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"business_id", "id", "name"}).
			AddRow(int64(1), int64(1), "wifi").
			AddRow(int64(1), int64(2), "parking").
			AddRow(int64(2), int64(3), "vegan"))

	got, err := NewRepository(mock).List(context.Background(), ListFilter{TagIDs: []int64{1, 3}})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Alpha", got[0].Name)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Cafes", got[0].Category.Name)
	assert.Len(t, got[0].Tags, 2)

	assert.Nil(t, got[1].Category)
	assert.True(t, got[1].IsPremium)
	assert.Len(t, got[1].Tags, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEmptySkipsTagQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM businesses b").
		WillReturnRows(pgxmock.NewRows(businessColumns))

	got, err := NewRepository(mock).List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertsTagsInTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	b := &Business{OwnerID: 9, Name: "Green Cafe", Location: "Tashkent", TagIDs: []int64{1, 2}}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO businesses").
		WithArgs(int64(9), "Green Cafe", "green-cafe", "", "Tashkent",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_premium", "created_at"}).AddRow(int64(11), false, now))
	mock.ExpectExec("INSERT INTO business_tags").
		WithArgs(int64(11), []int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(mock).Create(context.Background(), b))
	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, "green-cafe", b.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownTagRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	b := &Business{OwnerID: 9, Name: "Green Cafe", TagIDs: []int64{42}}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO businesses").
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_premium", "created_at"}).AddRow(int64(11), false, time.Now()))
	mock.ExpectExec("INSERT INTO business_tags").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err = NewRepository(mock).Create(context.Background(), b)
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WHERE b.id = ").
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewRepository(mock).GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
