package provision

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
	"jobstatus-api/internal/service"
)

func newProvisioner(t *testing.T) (*Provisioner, *database.DB) {
	t.Helper()

	url := "sqlite3://" + filepath.Join(t.TempDir(), "api.db")
	db, err := database.Open(context.Background(), database.Options{URL: url, CreateIfMissing: true})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	p := New(db, service.NewPasswordHasher(bcrypt.MinCost))
	p.now = func() time.Time { return time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC) }
	return p, db
}

func TestRun_Demo(t *testing.T) {
	p, _ := newProvisioner(t)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx, Options{Demo: true}))

	user, err := p.users.FindByUsername(ctx, "jsmith")
	require.NoError(t, err)
	assert.Equal(t, "john.smith@gmail.com", user.Email)
	assert.NotEqual(t, "verySecure123", user.PasswordHash)
	assert.True(t, service.NewPasswordHasher(bcrypt.MinCost).Compare(user.PasswordHash, "verySecure123"))

	env, err := p.jobs.ListAll(ctx)
	require.NoError(t, err)
	jobs := service.ShapeJobs(env.Rows).Jobs
	require.Len(t, jobs, 2)

	assert.Equal(t, "EQModelCalculator.sh", jobs[0]["program"])
	assert.Equal(t, "2025-09-20 10:00:00.000000 +0000", jobs[0]["start_time"])
	assert.Nil(t, jobs[0]["end_time"])
	assert.Equal(t, "-asofdate 20250920 -model VOL", jobs[0]["params"])

	assert.Equal(t, "LogArchiveAndReset.sh", jobs[1]["program"])
	assert.Equal(t, "2025-09-20 12:00:00.000000 +0000", jobs[1]["end_time"])
}

func TestRun_DropResetsData(t *testing.T) {
	p, _ := newProvisioner(t)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx, Options{Demo: true}))
	require.NoError(t, p.Run(ctx, Options{Drop: true}))

	_, err := p.users.FindByUsername(ctx, "jsmith")
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	env, err := p.jobs.ListAll(ctx)
	require.NoError(t, err)
	assert.False(t, env.Status)
}

func TestRun_AddUser(t *testing.T) {
	p, _ := newProvisioner(t)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx, Options{Username: "ops", Email: "ops@example.com", Password: "s3cret"}))

	user, err := p.users.FindByUsername(ctx, "ops")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
}

func TestAddUser_Validation(t *testing.T) {
	p, _ := newProvisioner(t)
	ctx := context.Background()
	require.NoError(t, p.db.EnsureSchema(ctx))

	_, err := p.AddUser(ctx, "ops", "", "s3cret")
	assert.ErrorIs(t, err, ErrMissingEmail)

	_, err = p.AddUser(ctx, " ", "ops@example.com", "s3cret")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = p.AddUser(ctx, "ops", "ops@example.com", "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAddUser_DuplicateUsername(t *testing.T) {
	p, _ := newProvisioner(t)
	ctx := context.Background()
	require.NoError(t, p.db.EnsureSchema(ctx))

	_, err := p.AddUser(ctx, "ops", "ops@example.com", "s3cret")
	require.NoError(t, err)

	_, err = p.AddUser(ctx, "ops", "other@example.com", "s3cret")
	assert.Error(t, err)
}
