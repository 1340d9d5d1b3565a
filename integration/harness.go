package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arenaforge/gameapi/access"
	apirest "github.com/arenaforge/gameapi/api/rest"
	"github.com/arenaforge/gameapi/audit"
	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/cache"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/scheduler"
	"github.com/arenaforge/gameapi/service"
	"github.com/arenaforge/gameapi/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret   = "integration-test-secret"
	TestPassword = "Integr4tionPass"
)

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Audit  *audit.Service
	Sched  *scheduler.Scheduler
	Tokens *auth.TokenManager
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>

	cancel context.CancelFunc
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in serve.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	auditSvc := audit.New(db, logger)
	sched := scheduler.New(logger)
	sched.Every("audit_purge", time.Hour, func(ctx context.Context) {
		_, _ = auditSvc.Purge(ctx, 720*time.Hour)
	})

	// ---- Services ----
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	users := service.NewUserService(db, auth.NewBcryptHasher(bcrypt.MinCost),
		service.NewLoginLimiter(c, 5, time.Minute, logger), logger)

	r := apirest.NewRouter(ctx, apirest.Deps{
		Users:          users,
		Characters:     service.NewCharacterService(db, logger),
		Equipment:      service.NewEquipmentService(db, logger),
		Tokens:         tokens,
		Chain:          access.NewChain(tokens, users),
		Audit:          auditSvc,
		Logger:         logger,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	})

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:     db,
		Cache:  c,
		Audit:  auditSvc,
		Sched:  sched,
		Tokens: tokens,
		Server: server,
		URL:    server.URL,
		cancel: cancel,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the server and background workers. Safe to call twice.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
	ts.cancel()
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, token)
}

// Put sends a PUT request with JSON body and optional Bearer token.
func (ts *TestServer) Put(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPut, path, body, token)
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, token)
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// ExpectStatus asserts the status code and closes the body.
func ExpectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, data)
	}
}

// --- Auth helpers ---

// Register creates an account and returns its id.
func (ts *TestServer) Register(t *testing.T, username string) int64 {
	t.Helper()
	resp := ts.PostJSON(t, "/api/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": TestPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		UserID int64 `json:"user_id"`
	}
	ReadJSON(t, resp, &result)
	return result.UserID
}

// Login returns an access token for the account registered as username.
func (ts *TestServer) Login(t *testing.T, username string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/users/login", map[string]string{
		"email":    username + "@example.com",
		"password": TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	return result["access_token"].(string)
}

// Promote sets a user's role directly in storage, standing in for an
// operator bootstrapping the first privileged account.
func (ts *TestServer) Promote(t *testing.T, userID int64, role model.Role) {
	t.Helper()
	require.NoError(t, ts.DB.Model(&model.User{}).Where("id = ?", userID).Update("role", role).Error)
}

var testCounter uint64

// UniqueID returns a unique name of len(prefix)+8 characters.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s%05d%03d", prefix, time.Now().UnixNano()%100000, n%1000)
}
