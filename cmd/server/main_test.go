package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/app"
	"github.com/iho/finledger/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDriver: config.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate:    true,
		JWTSecret:      "server-test-secret",
		JWTExpiration:  time.Hour,
		AuthEnabled:    true,
		IdempotencyTTL: time.Hour,
		UserCacheTTL:   time.Minute,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, withRedis bool) *httptest.Server {
	t.Helper()

	store, err := app.OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var client *goredis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
	}

	srv := httptest.NewServer(newRouter(cfg, store, client, prometheus.NewRegistry(), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServerLedgerFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(t), true)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/users", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	decode(t, resp, &user)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/users/authenticate", "", map[string]string{
		"email": "ana@example.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login dto.AuthResponse
	decode(t, resp, &login)
	assert.Equal(t, user.ID, login.User.ID)
	assert.Equal(t, int64(3600), login.ExpiresIn)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/entries?user="+user.ID, "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	create := func(description, kind, amount string, key string) *http.Response {
		return do(t, http.MethodPost, srv.URL+"/api/v1/entries", login.Token, map[string]any{
			"description": description, "month": 3, "year": 2024, "amount": amount, "kind": kind,
		}, map[string]string{middleware.IdempotencyKeyHeader: key})
	}

	resp = create("salary", "income", "100", "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var salary dto.EntryResponse
	decode(t, resp, &salary)
	assert.Equal(t, user.ID, salary.UserID)
	assert.Equal(t, "PENDING", salary.Status)

	replay := create("salary", "income", "100", "k-1")
	require.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.NotEmpty(t, replay.Header.Get(middleware.IdempotencyReplayHeader))
	var replayed dto.EntryResponse
	decode(t, replay, &replayed)
	assert.Equal(t, salary.ID, replayed.ID)

	require.Equal(t, http.StatusCreated, create("rent", "expense", "30", "k-2").StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/entries/"+salary.ID+"/status", login.Token,
		map[string]string{"status": "confirmed"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/entries?user="+user.ID+"&description=SAL", login.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ListEntriesResponse
	decode(t, resp, &list)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "CONFIRMED", list.Entries[0].Status)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/users/"+user.ID+"/balance", login.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance dto.BalanceResponse
	decode(t, resp, &balance)
	assert.Equal(t, "70", balance.Balance.String())

	resp = do(t, http.MethodGet, srv.URL+"/ready", "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready map[string]string
	decode(t, resp, &ready)
	assert.Equal(t, "ok", ready["database"])
	assert.Equal(t, "ok", ready["redis"])
}

func TestServerWithoutRedisOrAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthEnabled = false
	cfg.JWTSecret = ""
	srv := newTestServer(t, cfg, false)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/entries?user=missing", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/ready", "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready map[string]string
	decode(t, resp, &ready)
	_, hasRedis := ready["redis"]
	assert.False(t, hasRedis)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `finledger_http_requests_total{method="GET",path="/ready",status="200"} 1`))
}

func TestJWTSecret(t *testing.T) {
	assert.Equal(t, "configured", jwtSecret(&config.Config{JWTSecret: "configured"}, zerolog.Nop()))

	a := jwtSecret(&config.Config{}, zerolog.Nop())
	b := jwtSecret(&config.Config{}, zerolog.Nop())
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
