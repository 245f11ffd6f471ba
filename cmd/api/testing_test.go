package main

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/textsimplify/api/internal/cache"
	"github.com/textsimplify/api/internal/config"
	"github.com/textsimplify/api/internal/database"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/middleware"
	"github.com/textsimplify/api/internal/simplifier"
	"github.com/textsimplify/api/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-memory UserStore mirroring the repository's
// ownership and token semantics
type fakeUserStore struct {
	users     map[string]*models.User // by id
	byEmail   map[string]string
	resets    map[string]resetEntry // raw token -> entry
	verifs    map[string]verifEntry
	keys      map[string][]*models.APIKey
	rawKeys   map[string]string // raw api key -> user id
	lookupErr error             // returned by GetUserByEmail when set
}

type resetEntry struct {
	userID  string
	expires time.Time
}

type verifEntry struct {
	userID  string
	expires time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		resets:  make(map[string]resetEntry),
		verifs:  make(map[string]verifEntry),
		keys:    make(map[string][]*models.APIKey),
		rawKeys: make(map[string]string),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User, password string) error {
	if _, taken := f.byEmail[user.Email]; taken {
		return database.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user.PasswordHash = string(hash)
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return f.users[id], nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, userID string) error {
	now := time.Now()
	f.users[userID].LastLogin = &now
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID, password string) error {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.users[userID].PasswordHash = string(hash)
	return nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	if id, taken := f.byEmail[email]; taken && id != userID {
		return nil, database.ErrDuplicateEmail
	}
	user := f.users[userID]
	delete(f.byEmail, user.Email)
	user.Name = name
	user.Email = email
	f.byEmail[email] = userID
	return user, nil
}

func (f *fakeUserStore) IssueResetToken(ctx context.Context, userID string) (string, error) {
	raw := "reset-" + strconv.Itoa(len(f.resets))
	f.resets[raw] = resetEntry{userID: userID, expires: time.Now().Add(30 * time.Minute)}
	f.users[userID].ResetTokenHash = "hash-of-" + raw
	return raw, nil
}

func (f *fakeUserStore) ClearResetToken(ctx context.Context, userID string) error {
	for raw, entry := range f.resets {
		if entry.userID == userID {
			delete(f.resets, raw)
		}
	}
	f.users[userID].ResetTokenHash = ""
	return nil
}

func (f *fakeUserStore) ResetPassword(ctx context.Context, rawToken, password string) error {
	entry, ok := f.resets[rawToken]
	if !ok || time.Now().After(entry.expires) {
		return database.ErrInvalidToken
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.users[entry.userID].PasswordHash = string(hash)
	f.users[entry.userID].ResetTokenHash = ""
	delete(f.resets, rawToken)
	return nil
}

func (f *fakeUserStore) IssueVerifyToken(ctx context.Context, userID string) (string, error) {
	raw := "verify-" + strconv.Itoa(len(f.verifs))
	f.verifs[raw] = verifEntry{userID: userID, expires: time.Now().Add(24 * time.Hour)}
	f.users[userID].VerifyTokenHash = "hash-of-" + raw
	return raw, nil
}

func (f *fakeUserStore) ClearVerifyToken(ctx context.Context, userID string) error {
	for raw, entry := range f.verifs {
		if entry.userID == userID {
			delete(f.verifs, raw)
		}
	}
	f.users[userID].VerifyTokenHash = ""
	return nil
}

func (f *fakeUserStore) VerifyEmail(ctx context.Context, rawToken string) error {
	entry, ok := f.verifs[rawToken]
	if !ok || time.Now().After(entry.expires) {
		return database.ErrInvalidToken
	}
	f.users[entry.userID].EmailVerified = true
	f.users[entry.userID].VerifyTokenHash = ""
	delete(f.verifs, rawToken)
	return nil
}

func (f *fakeUserStore) CreateAPIKey(ctx context.Context, userID, name string) (string, *models.APIKey, error) {
	raw := "key-" + uuid.New().String()
	key := &models.APIKey{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
		IsActive:  true,
	}
	f.keys[userID] = append(f.keys[userID], key)
	f.rawKeys[raw] = userID
	return raw, key, nil
}

func (f *fakeUserStore) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	return f.keys[userID], nil
}

func (f *fakeUserStore) ValidateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	userID, ok := f.rawKeys[apiKey]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return f.users[userID], nil
}

// fakeQueryStore is an in-memory QueryStore scoped by owner
type fakeQueryStore struct {
	queries []*models.Query
}

func (f *fakeQueryStore) CreateQuery(ctx context.Context, q *models.Query) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.CreatedAt = time.Now()
	f.queries = append([]*models.Query{q}, f.queries...)
	return nil
}

func (f *fakeQueryStore) ListQueriesByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Query, error) {
	var owned []*models.Query
	for _, q := range f.queries {
		if q.UserID == userID {
			owned = append(owned, q)
		}
	}
	if offset >= len(owned) {
		return nil, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (f *fakeQueryStore) CountQueriesByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	for _, q := range f.queries {
		if q.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (f *fakeQueryStore) GetQueryByID(ctx context.Context, userID, id string) (*models.Query, error) {
	for _, q := range f.queries {
		if q.ID == id && q.UserID == userID {
			return q, nil
		}
	}
	return nil, database.ErrQueryNotFound
}

func (f *fakeQueryStore) DeleteQuery(ctx context.Context, userID, id string) error {
	for i, q := range f.queries {
		if q.ID == id && q.UserID == userID {
			f.queries = append(f.queries[:i], f.queries[i+1:]...)
			return nil
		}
	}
	return database.ErrQueryNotFound
}

// fakeMailer records deliveries and can be told to fail
type fakeMailer struct {
	fail          bool
	verifications []string // urls
	resets        []string
}

func (f *fakeMailer) SendVerification(ctx context.Context, to, name, url string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.verifications = append(f.verifications, url)
	return nil
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, name, url string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.resets = append(f.resets, url)
	return nil
}

// fakeSimplifier returns a canned result
type fakeSimplifier struct {
	result *simplifier.Result
	err    error
}

func (f *fakeSimplifier) Simplify(ctx context.Context, userID, text, level string) (*simplifier.Result, error) {
	return f.result, f.err
}

type testEnv struct {
	router     *gin.Engine
	users      *fakeUserStore
	queryStore *fakeQueryStore
	mailer     *fakeMailer
	simplify   *fakeSimplifier
	mr         *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret("test-secret")

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisCache, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	log, err := logging.NewDefaultLogger()
	require.NoError(t, err)

	env := &testEnv{
		users:      newFakeUserStore(),
		queryStore: &fakeQueryStore{},
		mailer:     &fakeMailer{},
		simplify:   &fakeSimplifier{},
		mr:         mr,
	}

	api := &API{
		users:      env.users,
		queries:    env.queryStore,
		simplifier: env.simplify,
		mailer:     env.mailer,
		cache:      redisCache,
		log:        log,
		cfg: &config.Config{
			Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpiry: time.Hour},
			Email: config.EmailConfig{
				FrontendURL: "http://localhost:3000",
			},
			RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100, DailyQuota: 1000},
			CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		},
	}

	env.router = setupRouter(api)
	return env
}

// addUser registers a verified active user directly in the store and
// returns a bearer token for it
func (env *testEnv) addUser(t *testing.T, email, password string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Email:         email,
		Name:          "Test User",
		IsActive:      true,
		EmailVerified: true,
	}
	require.NoError(t, env.users.CreateUser(context.Background(), user, password))

	token, err := middleware.GenerateToken(user.ID, user.Email, time.Hour)
	require.NoError(t, err)
	return user, token
}
