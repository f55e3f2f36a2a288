package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobstatus-api/internal/config"
	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
	"jobstatus-api/internal/provision"
	"jobstatus-api/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	url := "sqlite3://" + filepath.Join(t.TempDir(), "api.db")
	db, err := database.Open(ctx, database.Options{URL: url, CreateIfMissing: true})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, provision.New(db, service.NewPasswordHasher(bcrypt.MinCost)).Run(ctx, provision.Options{Demo: true}))

	cfg := &config.Config{
		DatabaseURL:        url,
		TokenLifetimeHours: 1,
		TokenBytes:         32,
		BcryptCost:         bcrypt.MinCost,
		RequestTimeout:     5 * time.Second,
		CORSOrigins:        []string{"*"},
	}

	srv := httptest.NewServer(NewHandler(cfg, db, nil))
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, body string) model.Envelope {
	t.Helper()

	resp, err := http.Post(srv.URL+"/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env model.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func getJSON(t *testing.T, srv *httptest.Server, path, token string, out any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestEndToEnd_LoginThenJobs(t *testing.T) {
	srv := newTestServer(t)

	env := login(t, srv, `{"username":"jsmith","password":"verySecure123"}`)
	require.Equal(t, model.StatusSuccess, env.Status)
	assert.Equal(t, "Login Successful", env.Message)
	assert.Len(t, env.Token, 64)

	var jobs model.JobsResponse
	getJSON(t, srv, "/jobs", env.Token, &jobs)
	require.Len(t, jobs.Jobs, 2)
	assert.Equal(t, "EQModelCalculator.sh", jobs.Jobs[0]["program"])
	assert.Contains(t, jobs.Jobs[0], "end_time")
	assert.Nil(t, jobs.Jobs[0]["end_time"])

	var one model.JobsResponse
	getJSON(t, srv, "/job/2", env.Token, &one)
	require.Len(t, one.Jobs, 1)
	assert.Equal(t, "LogArchiveAndReset.sh", one.Jobs[0]["program"])

	var none model.JobsResponse
	getJSON(t, srv, "/job/99", env.Token, &none)
	assert.Empty(t, none.Jobs)
}

func TestEndToEnd_Relogin(t *testing.T) {
	srv := newTestServer(t)

	first := login(t, srv, `{"username":"jsmith","password":"verySecure123"}`)
	second := login(t, srv, `{"username":"jsmith","password":"verySecure123"}`)
	require.Equal(t, model.StatusSuccess, second.Status)
	assert.NotEqual(t, first.Token, second.Token)

	var stale model.Envelope
	getJSON(t, srv, "/jobs", first.Token, &stale)
	assert.Equal(t, model.StatusFailed, stale.Status)
	assert.Equal(t, "Token is Invalid. Reason: 'Not a valid token'", stale.Message)

	var jobs model.JobsResponse
	getJSON(t, srv, "/jobs", second.Token, &jobs)
	assert.Len(t, jobs.Jobs, 2)
}

func TestEndToEnd_Rejections(t *testing.T) {
	srv := newTestServer(t)

	env := login(t, srv, `{"username":"jsmith","password":"wrong"}`)
	assert.Equal(t, model.StatusFailed, env.Status)
	assert.Equal(t, "Login failed - Password did not match and/or not a valid user", env.Message)
	assert.Empty(t, env.Token)

	env = login(t, srv, `{"username":"jsmith"}`)
	assert.Equal(t, "Login failed - Not a valid logon_request", env.Message)

	var missing model.Envelope
	getJSON(t, srv, "/jobs", "", &missing)
	assert.Equal(t, "Unable to retrieve token from Headers. Reason: 'Authorization not in headers'", missing.Message)

	var welcome []string
	getJSON(t, srv, "/", "", &welcome)
	assert.Equal(t, []string{"Welcome to the API. Please get a token at /login"}, welcome)
}
