package service

import (
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
	"jobstatus-api/internal/repository"
)

type fixture struct {
	db     *database.DB
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	auth   *AuthService
	user   model.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	url := "sqlite3://" + filepath.Join(t.TempDir(), "api.db")
	db, err := database.Open(ctx, database.Options{URL: url, CreateIfMissing: true})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("verySecure123")
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	user, err := users.Create(ctx, model.User{Username: "jsmith", Email: "john.smith@gmail.com", PasswordHash: hash})
	require.NoError(t, err)

	tokens := repository.NewTokenRepository(db, nil)
	tokenService := NewTokenService(tokens, TokenConfig{LifetimeHours: 1})

	return fixture{
		db:     db,
		users:  users,
		tokens: tokens,
		auth:   NewAuthService(users, tokenService, hasher),
		user:   user,
	}
}

func TestIssueToken(t *testing.T) {
	t.Parallel()

	first, err := IssueToken(32)
	require.NoError(t, err)
	require.Len(t, first, 64)
	_, err = hex.DecodeString(first)
	require.NoError(t, err)

	second, err := IssueToken(32)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	short, err := IssueToken(16)
	require.NoError(t, err)
	require.Len(t, short, 32)
}

type recordingStore struct {
	userID   int64
	token    string
	expiry   time.Time
	affected bool
	err      error
}

func (s *recordingStore) Upsert(_ context.Context, userID int64, token string, expiry time.Time) (bool, error) {
	s.userID, s.token, s.expiry = userID, token, expiry
	return s.affected, s.err
}

func (s *recordingStore) CheckTokenIsValid(context.Context, string) (bool, string, error) {
	return true, "", nil
}

func TestTokenService_Register(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 20, 8, 30, 0, 0, time.FixedZone("EST", -5*3600))

	t.Run("expiry is now plus the configured lifetime in UTC", func(t *testing.T) {
		store := &recordingStore{affected: true}
		svc := NewTokenService(store, TokenConfig{LifetimeHours: 4, Now: func() time.Time { return now }})

		ok, err := svc.Register(context.Background(), 7, "tok")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(7), store.userID)
		assert.Equal(t, "tok", store.token)
		assert.Equal(t, now.UTC().Add(4*time.Hour), store.expiry)
		assert.Equal(t, time.UTC, store.expiry.Location())
	})

	t.Run("no affected rows reports failure without an error", func(t *testing.T) {
		svc := NewTokenService(&recordingStore{}, TokenConfig{LifetimeHours: 1})

		ok, err := svc.Register(context.Background(), 7, "tok")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("store errors are wrapped", func(t *testing.T) {
		boom := errors.New("disk full")
		svc := NewTokenService(&recordingStore{err: boom}, TokenConfig{LifetimeHours: 1})

		_, err := svc.Register(context.Background(), 7, "tok")
		require.ErrorIs(t, err, boom)
	})

	t.Run("token size defaults to 32 bytes", func(t *testing.T) {
		svc := NewTokenService(&recordingStore{}, TokenConfig{})
		token, err := svc.Issue()
		require.NoError(t, err)
		require.Len(t, token, 2*DefaultTokenBytes)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		f := newFixture(t)

		env, err := f.auth.Login(ctx, map[string]any{"username": "jsmith", "password": "verySecure123"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusSuccess, env.Status)
		assert.Equal(t, "Login Successful", env.Message)
		assert.Len(t, env.Token, 64)

		valid, _, err := f.tokens.CheckTokenIsValid(ctx, env.Token)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("re-login keeps a single journal row", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{"username": "jsmith", "password": "verySecure123"}

		first, err := f.auth.Login(ctx, body)
		require.NoError(t, err)
		second, err := f.auth.Login(ctx, body)
		require.NoError(t, err)
		require.NotEqual(t, first.Token, second.Token)

		count, err := f.tokens.CountForUser(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		valid, reason, err := f.tokens.CheckTokenIsValid(ctx, first.Token)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Equal(t, repository.ReasonInvalidToken, reason)
	})

	t.Run("wrong password leaves the journal alone", func(t *testing.T) {
		f := newFixture(t)

		env, err := f.auth.Login(ctx, map[string]any{"username": "jsmith", "password": "guess"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, env.Status)
		assert.Equal(t, "Login failed - Password did not match and/or not a valid user", env.Message)
		assert.Empty(t, env.Token)

		count, err := f.tokens.CountForUser(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)

		env, err := f.auth.Login(ctx, map[string]any{"username": "nobody", "password": "verySecure123"})
		require.NoError(t, err)
		assert.Equal(t, "Login failed - Password did not match and/or not a valid user", env.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)

		env, err := f.auth.Login(ctx, map[string]any{"username": "jsmith"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, env.Status)
		assert.Equal(t, "Login failed - Not a valid logon_request", env.Message)
	})
}

type failingIssuer struct{}

func (failingIssuer) Issue() (string, error) { return "deadbeef", nil }

func (failingIssuer) Register(context.Context, int64, string) (bool, error) { return false, nil }

func TestAuthService_LoginPersistFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	auth := NewAuthService(f.users, failingIssuer{}, NewPasswordHasher(bcrypt.MinCost))
	env, err := auth.Login(context.Background(), map[string]any{"username": "jsmith", "password": "verySecure123"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, env.Status)
	assert.Equal(t, "Login failed", env.Message)
	assert.Empty(t, env.Token, "the unpersisted token is discarded")
}

func TestPasswordHasher(t *testing.T) {
	t.Parallel()
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("verySecure123")
	require.NoError(t, err)
	assert.NotEqual(t, "verySecure123", hash)
	assert.True(t, hasher.Compare(hash, "verySecure123"))
	assert.False(t, hasher.Compare(hash, "verySecure124"))
	assert.False(t, hasher.Compare("verySecure123", "verySecure123"), "plaintext rows never match")
}

func TestShapeJobs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.JobsResponse{Jobs: []map[string]any{}}, ShapeJobs(nil))

	rows := [][]any{
		{"job_id", "program", "end_time"},
		{int64(1), "EQModelCalculator.sh", nil},
		{int64(2), "LogArchiveAndReset.sh", "2025-09-20 12:00:00.000000 +0000"},
	}
	got := ShapeJobs(rows)
	require.Len(t, got.Jobs, 2)
	assert.Equal(t, map[string]any{"job_id": int64(1), "program": "EQModelCalculator.sh", "end_time": nil}, got.Jobs[0])
	assert.Equal(t, "LogArchiveAndReset.sh", got.Jobs[1]["program"])
}

type stubJobs struct {
	requested int64
}

func (s *stubJobs) ListAll(context.Context) (database.Envelope, error) {
	return database.Envelope{}, nil
}

func (s *stubJobs) FindByID(_ context.Context, jobID int64) (database.Envelope, error) {
	s.requested = jobID
	return database.Envelope{Status: true, Rows: [][]any{{"job_id"}, {jobID}}}, nil
}

func TestJobService_GetJob(t *testing.T) {
	t.Parallel()

	stub := &stubJobs{}
	svc := NewJobService(stub)

	resp, err := svc.GetJob(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), stub.requested)
	assert.Equal(t, []map[string]any{{"job_id": int64(12)}}, resp.Jobs)

	_, err = svc.GetJob(context.Background(), "1 OR 1=1")
	require.ErrorIs(t, err, model.ErrInvalidJobID)

	resp, err = svc.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Jobs)
	assert.NotNil(t, resp.Jobs)
}
