package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/database/testutil"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/pkg/response"
)

type authFixture struct {
	db   *gorm.DB
	gate *iauth.Gate
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	codec, err := iauth.NewTokenCodec(iauth.TokenConfig{Secret: "middleware-secret"})
	require.NoError(t, err)
	gate, err := iauth.NewGate(db, codec, iauth.NewCookieManager(iauth.CookieConfig{}))
	require.NoError(t, err)
	return &authFixture{db: db, gate: gate}
}

func (fx *authFixture) user(t *testing.T, email string, superuser bool, roles ...string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash", IsActive: true, IsSuperuser: superuser}
	require.NoError(t, fx.db.Create(user).Error)
	if len(roles) > 0 {
		var found []models.Role
		require.NoError(t, fx.db.Where("name IN ?", roles).Find(&found).Error)
		require.NoError(t, fx.db.Model(user).Association("Roles").Replace(found))
	}
	return user
}

func (fx *authFixture) request(t *testing.T, method, path string, user *models.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != nil {
		token, err := fx.gate.Codec().Issue(user.ID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: fx.gate.Cookies().Name(), Value: token})
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *response.ErrorInfo {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
	return payload.Error
}

func TestAuthMiddleware(t *testing.T) {
	fx := newAuthFixture(t)
	alice := fx.user(t, "alice@example.com", false)

	r := gin.New()
	r.GET("/secure", Auth(fx.gate), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"email":   CurrentUser(c).Email,
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, fx.request(t, http.MethodGet, "/secure", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, fx.request(t, http.MethodGet, "/secure", alice))
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, alice.ID, payload["user_id"])
	require.Equal(t, "alice@example.com", payload["email"])

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: fx.gate.Cookies().Name(), Value: "garbage"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	fx := newAuthFixture(t)
	bob := fx.user(t, "bob@example.com", false)

	r := gin.New()
	r.GET("/page", OptionalAuth(fx.gate), func(c *gin.Context) {
		if user := CurrentUser(c); user != nil {
			c.String(http.StatusOK, user.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, fx.request(t, http.MethodGet, "/page", nil))
	require.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, fx.request(t, http.MethodGet, "/page", bob))
	require.Equal(t, "bob@example.com", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	fx := newAuthFixture(t)
	editor := fx.user(t, "editor@example.com", false, models.RoleEditor)
	plain := fx.user(t, "plain@example.com", false)
	root := fx.user(t, "root@example.com", true)

	r := gin.New()
	r.POST("/items", RequireRole(fx.gate, models.RoleAdmin, models.RoleEditor), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/admin", Auth(fx.gate), RequireRole(fx.gate, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		method string
		path   string
		user   *models.User
		status int
	}{
		{name: "anonymous", method: http.MethodPost, path: "/items", status: http.StatusUnauthorized},
		{name: "editor allowed", method: http.MethodPost, path: "/items", user: editor, status: http.StatusCreated},
		{name: "no roles", method: http.MethodPost, path: "/items", user: plain, status: http.StatusForbidden},
		{name: "superuser bypass", method: http.MethodPost, path: "/items", user: root, status: http.StatusCreated},
		{name: "editor not admin", method: http.MethodGet, path: "/admin", user: editor, status: http.StatusForbidden},
		{name: "superuser admin", method: http.MethodGet, path: "/admin", user: root, status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, fx.request(t, tc.method, tc.path, tc.user))
			require.Equal(t, tc.status, w.Code)
		})
	}
}
