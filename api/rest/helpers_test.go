package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/arenaforge/gameapi/access"
	"github.com/arenaforge/gameapi/api/rest"
	"github.com/arenaforge/gameapi/audit"
	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/service"
	"github.com/arenaforge/gameapi/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Passw0rdOK"

func init() {
	gin.SetMode(gin.TestMode)
}

type memAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAuditor) Log(e audit.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memAuditor) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

type testEnv struct {
	r     *gin.Engine
	db    *gorm.DB
	audit *memAuditor
}

func newEnv(t *testing.T, opts ...func(*rest.Deps)) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	log := zap.NewNop()

	tokens, err := auth.NewTokenManager("rest-test-secret-value", time.Hour)
	require.NoError(t, err)
	users := service.NewUserService(db, auth.NewBcryptHasher(bcrypt.MinCost),
		service.NewLoginLimiter(c, 5, time.Minute, log), log)
	a := &memAuditor{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	deps := rest.Deps{
		Users:      users,
		Characters: service.NewCharacterService(db, log),
		Equipment:  service.NewEquipmentService(db, log),
		Tokens:     tokens,
		Chain:      access.NewChain(tokens, users),
		Audit:      a,
		Logger:     log,
	}
	for _, o := range opts {
		o(&deps)
	}
	r := rest.NewRouter(ctx, deps)
	return &testEnv{r: r, db: db, audit: a}
}

func doRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// signup registers a user, optionally promotes them, and returns id and token.
func (e *testEnv) signup(t *testing.T, username string, role model.Role) (int64, string) {
	t.Helper()
	w := doRequest(e.r, http.MethodPost, "/api/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		UserID int64 `json:"user_id"`
	}
	decode(t, w, &reg)

	if role != model.RoleUser {
		require.NoError(t, e.db.Model(&model.User{}).Where("id = ?", reg.UserID).Update("role", role).Error)
	}
	return reg.UserID, e.login(t, username+"@example.com", testPassword)
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := doRequest(e.r, http.MethodPost, "/api/users/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]interface{}
	decode(t, w, &resp)
	return resp["access_token"].(string)
}

func path(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
