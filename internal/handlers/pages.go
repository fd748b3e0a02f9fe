package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/services"
)

// PageHandler renders the public landing page and the signed-in dashboard, and accepts the
// dashboard's todo forms.
type PageHandler struct {
	todos *services.TodoService
}

func NewPageHandler(todos *services.TodoService) *PageHandler {
	return &PageHandler{todos: todos}
}

type todoForm struct {
	Title       string `form:"title" validate:"required,max=255"`
	Description string `form:"description" validate:"max=1024"`
}

// GET /
func (h *PageHandler) Index(c *gin.Context) {
	render(c, http.StatusOK, "index.html", nil)
}

// GET /dashboard
func (h *PageHandler) Dashboard(c *gin.Context) {
	h.renderDashboard(c, http.StatusOK, "")
}

// POST /todos
func (h *PageHandler) CreateTodo(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form todoForm
	if message, ok := bindForm(c, &form); !ok {
		h.renderDashboard(c, http.StatusBadRequest, message)
		return
	}

	_, err := h.todos.Create(requestContext(c), user.ID, services.CreateTodoInput{
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		if status, message, ok := clientError(err); ok {
			h.renderDashboard(c, status, message)
			return
		}
		respondError(c, err)
		return
	}
	redirect(c, "/dashboard")
}

// POST /todos/:id/toggle
func (h *PageHandler) ToggleTodo(c *gin.Context) {
	h.mutateTodo(c, func(userID string, todoID uint) error {
		_, err := h.todos.Toggle(requestContext(c), userID, todoID)
		return err
	})
}

// POST /todos/:id/delete
func (h *PageHandler) DeleteTodo(c *gin.Context) {
	h.mutateTodo(c, func(userID string, todoID uint) error {
		return h.todos.Delete(requestContext(c), userID, todoID)
	})
}

// mutateTodo runs op against the todo named in the path. Ids that do not parse or do not belong to
// the user are ignored and the browser is sent back to the dashboard either way.
func (h *PageHandler) mutateTodo(c *gin.Context, op func(userID string, todoID uint) error) {
	user := middleware.CurrentUser(c)
	todoID, ok := parseIDParam(c, "id")
	if ok {
		if err := op(user.ID, todoID); err != nil && !isNotFound(err) {
			respondError(c, err)
			return
		}
	}
	redirect(c, "/dashboard")
}

func (h *PageHandler) renderDashboard(c *gin.Context, status int, message string) {
	user := middleware.CurrentUser(c)
	todos, err := h.todos.List(requestContext(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, status, "dashboard.html", gin.H{
		"Title": "Dashboard",
		"Todos": todos,
		"Error": message,
	})
}
