package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"biznesnet/internal/auth"
	"biznesnet/internal/domain/businesses"
	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/comments"
	"biznesnet/internal/domain/likes"
	"biznesnet/internal/domain/premium"
	"biznesnet/internal/domain/ratings"
	"biznesnet/internal/domain/storage"
	"biznesnet/internal/domain/tags"
	"biznesnet/internal/domain/users"
	"biznesnet/internal/media"
	"biznesnet/internal/payments"
	"biznesnet/internal/ratelimiter"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	byID map[int64]*users.User
}

func (f *fakeUsers) Create(_ context.Context, u *users.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return users.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return users.ErrDuplicateUsername
		}
	}
	u.ID = int64(len(f.byID) + 1)
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

type fakeBusinesses struct {
	byID       map[int64]*businesses.Business
	lastFilter businesses.ListFilter
}

func (f *fakeBusinesses) Create(_ context.Context, b *businesses.Business) error {
	b.ID = int64(len(f.byID) + 1)
	b.CreatedAt = time.Now()
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBusinesses) GetByID(_ context.Context, id int64) (*businesses.Business, error) {
	if b, ok := f.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, businesses.ErrNotFound
}

func (f *fakeBusinesses) List(_ context.Context, filter businesses.ListFilter) ([]businesses.Business, error) {
	f.lastFilter = filter
	ids := make([]int64, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []businesses.Business
	for _, id := range ids {
		out = append(out, *f.byID[id])
	}
	return out, nil
}

type fakeCategories struct {
	list []categories.Category
}

func (f *fakeCategories) List(context.Context) ([]categories.Category, error) {
	return f.list, nil
}

func (f *fakeCategories) Create(_ context.Context, c *categories.Category) error {
	for _, existing := range f.list {
		if existing.Name == c.Name {
			return categories.ErrConflict
		}
	}
	c.ID = int64(len(f.list) + 1)
	f.list = append(f.list, *c)
	return nil
}

func (f *fakeCategories) Exists(_ context.Context, id int64) (bool, error) {
	for _, c := range f.list {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Delete(_ context.Context, id int64) error {
	for i, c := range f.list {
		if c.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return categories.ErrNotFound
}

type fakeTags struct {
	list []tags.Tag
}

func (f *fakeTags) List(context.Context) ([]tags.Tag, error) {
	return f.list, nil
}

func (f *fakeTags) Create(_ context.Context, t *tags.Tag) error {
	for _, existing := range f.list {
		if existing.Name == t.Name {
			return tags.ErrConflict
		}
	}
	t.ID = int64(len(f.list) + 1)
	f.list = append(f.list, *t)
	return nil
}

func (f *fakeTags) CountExisting(_ context.Context, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		for _, t := range f.list {
			if t.ID == id {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeTags) Delete(_ context.Context, id int64) error {
	for i, t := range f.list {
		if t.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return tags.ErrNotFound
}

type fakeComments struct {
	list []comments.Comment
}

func (f *fakeComments) Create(_ context.Context, c *comments.Comment) error {
	c.ID = int64(len(f.list) + 1)
	c.CreatedAt = time.Now()
	f.list = append(f.list, *c)
	return nil
}

func (f *fakeComments) ListByBusiness(_ context.Context, businessID int64) ([]comments.Comment, error) {
	var out []comments.Comment
	for i := len(f.list) - 1; i >= 0; i-- {
		if f.list[i].BusinessID == businessID {
			out = append(out, f.list[i])
		}
	}
	return out, nil
}

type fakeRatings struct {
	stars map[[2]int64]int // business, user
}

func (f *fakeRatings) Upsert(_ context.Context, r *ratings.Rating) error {
	if r.Stars < ratings.MinStars || r.Stars > ratings.MaxStars {
		return ratings.ErrInvalidStars
	}
	f.stars[[2]int64{r.BusinessID, r.UserID}] = r.Stars
	return nil
}

func (f *fakeRatings) Stats(_ context.Context, businessID int64) (ratings.Stats, error) {
	var sum, n int
	for key, s := range f.stars {
		if key[0] == businessID {
			sum += s
			n++
		}
	}
	if n == 0 {
		return ratings.Stats{}, nil
	}
	return ratings.Stats{Average: ratings.RoundAverage(float64(sum) / float64(n)), Count: int64(n)}, nil
}

type fakeLikes struct {
	rows map[[2]int64]likes.State // user, business
}

func (f *fakeLikes) Toggle(_ context.Context, userID, businessID int64, v likes.Value) (*likes.ToggleResult, error) {
	if v != likes.Like && v != likes.Dislike {
		return nil, likes.ErrInvalidValue
	}
	key := [2]int64{userID, businessID}
	next, status := likes.Transition(f.rows[key], v)
	if next == likes.None {
		delete(f.rows, key)
	} else {
		f.rows[key] = next
	}

	l, d, _ := f.Counts(context.Background(), businessID)
	return &likes.ToggleResult{Status: status, TotalLikes: l, TotalDislikes: d}, nil
}

func (f *fakeLikes) Counts(_ context.Context, businessID int64) (int64, int64, error) {
	var l, d int64
	for key, s := range f.rows {
		if key[1] != businessID {
			continue
		}
		switch s {
		case likes.Liked:
			l++
		case likes.Disliked:
			d++
		}
	}
	return l, d, nil
}

type fakePremium struct {
	checkouts  map[string]*premium.Checkout
	businesses *fakeBusinesses
}

func (f *fakePremium) CreatePending(_ context.Context, c *premium.Checkout) error {
	c.ID = int64(len(f.checkouts) + 1)
	c.Status = premium.StatusPending
	f.checkouts[c.SessionID] = c
	return nil
}

func (f *fakePremium) MarkPaid(_ context.Context, sessionID string) (int64, bool, error) {
	c, ok := f.checkouts[sessionID]
	if !ok {
		return 0, false, premium.ErrNotFound
	}
	if c.Status == premium.StatusPaid {
		return c.BusinessID, false, nil
	}
	c.Status = premium.StatusPaid
	if b, ok := f.businesses.byID[c.BusinessID]; ok {
		b.IsPremium = true
	}
	return c.BusinessID, true, nil
}

type fakeGateway struct {
	calls    int
	err      error
	verified payments.PaymentVerifyResponse
	last     payments.PaymentRequest
}

func (g *fakeGateway) InitiatePayment(_ context.Context, req payments.PaymentRequest) (payments.PaymentResponse, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return payments.PaymentResponse{}, g.err
	}
	return payments.PaymentResponse{
		PaymentURL: "https://pay.example.com/session/sess_1",
		SessionID:  "sess_1",
	}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, _ payments.PaymentVerifyRequest) (payments.PaymentVerifyResponse, error) {
	return g.verified, g.err
}

type fakeUploader struct {
	uploaded []string
}

func (u *fakeUploader) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	head := make([]byte, 4)
	if _, err := io.ReadFull(file, head); err != nil || string(head[1:4]) != "PNG" {
		return "", media.ErrNotImage
	}
	url := "https://cdn.example.com/" + filename
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) Delete(context.Context, string) error { return nil }

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) Send(templateFile, _, email string, _ any) error {
	m.sent = append(m.sent, templateFile+":"+email)
	return nil
}

const (
	testWebhookSecret = "whsec_test"
	testBasicUser     = "admin"
	testBasicPass     = "s3cret"
)

// testEnv is an application wired to in-memory stores.
type testEnv struct {
	app        *application
	handler    http.Handler
	users      *fakeUsers
	businesses *fakeBusinesses
	categories *fakeCategories
	tags       *fakeTags
	comments   *fakeComments
	ratings    *fakeRatings
	likes      *fakeLikes
	premium    *fakePremium
	gateway    *fakeGateway
	uploader   *fakeUploader
	mailer     *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:      &fakeUsers{byID: map[int64]*users.User{}},
		businesses: &fakeBusinesses{byID: map[int64]*businesses.Business{}},
		categories: &fakeCategories{},
		tags:       &fakeTags{},
		comments:   &fakeComments{},
		ratings:    &fakeRatings{stars: map[[2]int64]int{}},
		likes:      &fakeLikes{rows: map[[2]int64]likes.State{}},
		gateway:    &fakeGateway{},
		uploader:   &fakeUploader{},
		mailer:     &fakeMailer{},
	}
	env.premium = &fakePremium{checkouts: map[string]*premium.Checkout{}, businesses: env.businesses}

	store := &storage.Container{
		Users:      env.users,
		Businesses: env.businesses,
		Taxonomy:   storage.Taxonomy{Categories: env.categories, Tags: env.tags},
		Feedback:   storage.Feedback{Comments: env.comments, Ratings: env.ratings, Likes: env.likes},
		Premium:    env.premium,
	}

	manager := payments.NewPaymentManager()
	manager.RegisterGateway("fake", env.gateway)
	manager.RegisterGateway("stripe", payments.NewStripeAdapter("sk_test_123", testWebhookSecret, nil))

	cfg := config{
		env:    "test",
		apiURL: "http://api.test",
		auth: authConfig{
			basic: basicConfig{user: testBasicUser, pass: testBasicPass},
			token: tokenConfig{secret: "test-secret", exp: time.Hour, iss: "test"},
		},
		payment: paymentConfig{
			provider:   "fake",
			priceMinor: 5000,
			currency:   "usd",
		},
		rateLimiter: ratelimiter.Config{RequestsPerTimeFrame: 100, TimeFrame: time.Minute},
	}

	env.app = &application{
		config:        cfg,
		store:         store,
		logger:        zap.NewNop().Sugar(),
		media:         env.uploader,
		mailer:        env.mailer,
		payments:      manager,
		references:    premium.NewReferenceGenerator("test-secret"),
		authenticator: auth.NewJWTAuthenticator(cfg.auth.token.secret, cfg.auth.token.iss, cfg.auth.token.iss, cfg.auth.token.exp),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
	}
	env.handler = env.app.mount()
	return env
}

func (e *testEnv) addUser(t *testing.T, username string) *users.User {
	t.Helper()
	u := &users.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, u.Password.Set("password123"))
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) addBusiness(t *testing.T, owner *users.User, name string) *businesses.Business {
	t.Helper()
	b := &businesses.Business{OwnerID: owner.ID, Name: name, Tags: []tags.Tag{}}
	require.NoError(t, e.businesses.Create(context.Background(), b))
	return b
}

func (e *testEnv) token(t *testing.T, u *users.User) string {
	t.Helper()
	token, err := e.app.authenticator.GenerateToken(u.ID)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", user, pass)))
}
