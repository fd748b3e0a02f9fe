package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/api"
	"github.com/charlesng35/stackapp/internal/app"
	iauth "github.com/charlesng35/stackapp/internal/auth"
	sharedtestutil "github.com/charlesng35/stackapp/internal/database/testutil"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/pkg/crypto"
	"github.com/charlesng35/stackapp/pkg/response"
)

// Env encapsulates a fully-wired web router backed by an in-memory database for handler tests.
// CSRF protection is enabled so form and JSON posts go through the same checks as production.
type Env struct {
	T         *testing.T
	DB        *gorm.DB
	Router    *gin.Engine
	Gate      *iauth.Gate
	Publisher *RecordingPublisher

	csrfToken  string
	csrfCookie *http.Cookie
}

// EnvOption customises the configuration NewEnv builds the router with.
type EnvOption func(*app.Config)

// WithoutCSRF disables double-submit protection.
func WithoutCSRF() EnvOption {
	return func(cfg *app.Config) {
		cfg.Server.CSRF.Enabled = false
	}
}

// WithRateLimit overrides the login and registration limit.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Auth.RateLimit.Requests = requests
		cfg.Auth.RateLimit.Window = window
	}
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Server: app.ServerConfig{CSRF: app.CSRFConfig{Enabled: true}},
		Auth: app.AuthConfig{
			Session: app.SessionSettings{
				Secret:     "test-suite-session-secret",
				Issuer:     "test-suite",
				CookieName: "session",
				MaxAge:     time.Hour,
			},
			RateLimit: app.RateLimitSettings{Requests: 1000, Window: time.Minute},
		},
		Cache: app.CacheConfig{ItemsTTL: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	codec, err := iauth.NewTokenCodec(cfg.Auth.TokenConfig())
	require.NoError(t, err)
	gate, err := iauth.NewGate(db, codec, iauth.NewCookieManager(cfg.Auth.CookieConfig()))
	require.NoError(t, err)

	publisher := &RecordingPublisher{}
	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		Gate:      gate,
		Publisher: publisher,
	}, cfg)
	require.NoError(t, err)

	return &Env{
		T:         t,
		DB:        db,
		Router:    router,
		Gate:      gate,
		Publisher: publisher,
	}
}

// CreateUser inserts an active user with the given password and roles.
func (e *Env) CreateUser(email, password string, roles ...string) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	user := &models.User{
		Email:    models.NormalizeEmail(email),
		Password: hashed,
		IsActive: true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)

	if len(roles) > 0 {
		var found []models.Role
		require.NoError(e.T, e.DB.Where("name IN ?", roles).Find(&found).Error)
		require.Len(e.T, found, len(roles))
		require.NoError(e.T, e.DB.Model(user).Association("Roles").Replace(found))
	}
	return user
}

// SessionFor issues a session cookie for user without going through the login form.
func (e *Env) SessionFor(user *models.User) *http.Cookie {
	e.T.Helper()

	token, err := e.Gate.Codec().Issue(user.ID)
	require.NoError(e.T, err)
	return &http.Cookie{Name: e.Gate.Cookies().Name(), Value: token}
}

// SessionCookie returns the session cookie set by w, or nil.
func (e *Env) SessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == e.Gate.Cookies().Name() {
			return c
		}
	}
	return nil
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a JSON request against the router. session may be nil.
func (e *Env) Request(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(req, session, false)
}

// Form submits an url-encoded form the way the HTML pages do, including the CSRF form field.
func (e *Env) Form(path string, values url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	if values == nil {
		values = url.Values{}
	}
	e.ensureCSRFToken()
	if e.csrfToken != "" {
		values.Set(middleware.CSRFFormField, e.csrfToken)
	}

	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, session, true)
}

// RawRequest sends req without attaching any CSRF material.
func (e *Env) RawRequest(req *http.Request) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *Env) do(req *http.Request, session *http.Cookie, formToken bool) *httptest.ResponseRecorder {
	e.T.Helper()

	if session != nil {
		req.AddCookie(session)
	}
	if requiresCSRFAttestation(req.Method) {
		e.ensureCSRFToken()
		if e.csrfCookie != nil {
			req.AddCookie(e.csrfCookie)
		}
		if e.csrfToken != "" && !formToken {
			req.Header.Set(middleware.CSRFHeaderName, e.csrfToken)
		}
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	e.captureCSRF(w.Result())
	return w
}

func (e *Env) ensureCSRFToken() {
	if e.csrfToken != "" && e.csrfCookie != nil {
		return
	}
	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(e.T, err)
	w := e.RawRequest(req)
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	e.captureCSRF(w.Result())
}

func (e *Env) captureCSRF(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(middleware.CSRFHeaderName); token != "" {
		e.csrfToken = token
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFCookieName {
			e.csrfCookie = &http.Cookie{Name: c.Name, Value: c.Value}
			break
		}
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// RecordingPublisher captures published job envelopes instead of sending them to a broker.
type RecordingPublisher struct {
	mu        sync.Mutex
	envelopes []jobs.Envelope
}

func (p *RecordingPublisher) Publish(_ context.Context, env jobs.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
}

func (p *RecordingPublisher) Close() error { return nil }

// Envelopes returns a snapshot of everything published so far.
func (p *RecordingPublisher) Envelopes() []jobs.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]jobs.Envelope(nil), p.envelopes...)
}
