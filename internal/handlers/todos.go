package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/pkg/response"
)

type TodoHandler struct {
	todos *services.TodoService
}

func NewTodoHandler(todos *services.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

type todoResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsDone      bool      `json:"is_done"`
	CreatedAt   time.Time `json:"created_at"`
}

// GET /api/todos
func (h *TodoHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	todos, err := h.todos.List(requestContext(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]todoResponse, len(todos))
	for i, todo := range todos {
		out[i] = newTodoResponse(todo)
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}

func newTodoResponse(todo models.Todo) todoResponse {
	return todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsDone:      todo.IsDone,
		CreatedAt:   todo.CreatedAt,
	}
}
