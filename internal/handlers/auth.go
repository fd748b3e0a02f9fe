package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/metrics"
	"github.com/charlesng35/stackapp/pkg/response"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgSomethingWentWrong = "Something went wrong, please try again"
)

// AuthHandler serves the login, registration and logout pages and the current-user API.
type AuthHandler struct {
	users   *services.UserService
	codec   *iauth.TokenCodec
	cookies *iauth.CookieManager
}

func NewAuthHandler(users *services.UserService, codec *iauth.TokenCodec, cookies *iauth.CookieManager) *AuthHandler {
	return &AuthHandler{users: users, codec: codec, cookies: cookies}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,max=320"`
	Password string `form:"password" validate:"required,max=1024"`
}

type registerForm struct {
	Email    string `form:"email" validate:"required,email,max=320"`
	Password string `form:"password" validate:"required,min=8,max=1024"`
}

// GET /auth/login
func (h *AuthHandler) LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if _, ok := bindForm(c, &form); !ok {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		h.renderLogin(c, http.StatusBadRequest, form.Email, msgInvalidCredentials)
		return
	}

	user, err := h.users.Authenticate(requestContext(c), form.Email, form.Password)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidCredentials) {
			metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
			h.renderLogin(c, http.StatusBadRequest, form.Email, msgInvalidCredentials)
			return
		}
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		logger.WithModule("auth").Error("login failed", zap.Error(err))
		h.renderLogin(c, http.StatusInternalServerError, form.Email, msgSomethingWentWrong)
		return
	}

	if !h.startSession(c, user) {
		h.renderLogin(c, http.StatusInternalServerError, form.Email, msgSomethingWentWrong)
		return
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	redirect(c, "/dashboard")
}

// GET /auth/register
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if message, ok := bindForm(c, &form); !ok {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		h.renderRegister(c, http.StatusBadRequest, form.Email, message)
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
			metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
			h.renderRegister(c, http.StatusBadRequest, form.Email, appErr.Message)
			return
		}
		metrics.AuthAttempts.WithLabelValues("register", "error").Inc()
		logger.WithModule("auth").Error("registration failed", zap.Error(err))
		h.renderRegister(c, http.StatusInternalServerError, form.Email, msgSomethingWentWrong)
		return
	}

	if !h.startSession(c, user) {
		h.renderRegister(c, http.StatusInternalServerError, form.Email, msgSomethingWentWrong)
		return
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	redirect(c, "/dashboard")
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.Clear(c.Writer)
	redirect(c, "/")
}

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, newUserResponse(user))
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) bool {
	token, err := h.codec.Issue(user.ID)
	if err != nil {
		logger.WithModule("auth").Error("issue session token", zap.String("user_id", user.ID), zap.Error(err))
		return false
	}
	h.cookies.Attach(c.Writer, token)
	return true
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, email, message string) {
	render(c, status, "login.html", gin.H{"Title": "Log in", "Email": email, "Error": message})
}

func (h *AuthHandler) renderRegister(c *gin.Context, status int, email, message string) {
	render(c, status, "register.html", gin.H{"Title": "Register", "Email": email, "Error": message})
}
