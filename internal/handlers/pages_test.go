package handlers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/stackapp/internal/handlers/testutil"
	"github.com/charlesng35/stackapp/internal/models"
)

func TestIndexIsPublic(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestDashboardRequiresSession(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/dashboard", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Form("/todos", url.Values{"title": {"sneaky"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTodoLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("todo@example.com", "password123")
	session := env.SessionFor(user)

	w := env.Form("/todos", url.Values{"title": {"Buy milk"}, "description": {"semi-skimmed"}}, session)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	var todo models.Todo
	require.NoError(t, env.DB.Where("user_id = ?", user.ID).Take(&todo).Error)
	require.Equal(t, "Buy milk", todo.Title)
	require.False(t, todo.IsDone)

	page := env.Request(http.MethodGet, "/dashboard", nil, session)
	require.Equal(t, http.StatusOK, page.Code)
	require.Contains(t, page.Body.String(), "Buy milk")

	id := strconv.FormatUint(uint64(todo.ID), 10)
	w = env.Form("/todos/"+id+"/toggle", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, env.DB.First(&todo, todo.ID).Error)
	require.True(t, todo.IsDone)

	w = env.Form("/todos/"+id+"/delete", nil, session)
	require.Equal(t, http.StatusFound, w.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Todo{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTodoRequiresTitle(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.SessionFor(env.CreateUser("blank@example.com", "password123"))

	w := env.Form("/todos", url.Values{"title": {""}}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	var count int64
	require.NoError(t, env.DB.Model(&models.Todo{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTodoMutationsIgnoreForeignIDs(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("owner@example.com", "password123")
	intruder := env.CreateUser("intruder@example.com", "password123")

	todo := &models.Todo{UserID: owner.ID, Title: "private"}
	require.NoError(t, env.DB.Create(todo).Error)
	id := strconv.FormatUint(uint64(todo.ID), 10)
	session := env.SessionFor(intruder)

	w := env.Form("/todos/"+id+"/toggle", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	w = env.Form("/todos/"+id+"/delete", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	w = env.Form("/todos/not-a-number/delete", nil, session)
	require.Equal(t, http.StatusFound, w.Code)

	var reloaded models.Todo
	require.NoError(t, env.DB.First(&reloaded, todo.ID).Error)
	require.False(t, reloaded.IsDone)

	page := env.Request(http.MethodGet, "/dashboard", nil, session)
	require.Equal(t, http.StatusOK, page.Code)
	require.NotContains(t, page.Body.String(), "private")
}

func TestFormPostWithoutCSRFTokenIsRejected(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.SessionFor(env.CreateUser("csrf@example.com", "password123"))

	req, err := http.NewRequest(http.MethodPost, "/todos", nil)
	require.NoError(t, err)
	req.AddCookie(session)

	w := env.RawRequest(req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPITodosListsOwnTodos(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("api@example.com", "password123")
	other := env.CreateUser("other@example.com", "password123")
	require.NoError(t, env.DB.Create(&models.Todo{UserID: user.ID, Title: "mine"}).Error)
	require.NoError(t, env.DB.Create(&models.Todo{UserID: other.ID, Title: "theirs"}).Error)

	w := env.Request(http.MethodGet, "/api/todos", nil, env.SessionFor(user))
	require.Equal(t, http.StatusOK, w.Code)

	resp := testutil.DecodeResponse(t, w)
	var todos []struct {
		Title  string `json:"title"`
		IsDone bool   `json:"is_done"`
	}
	testutil.DecodeInto(t, resp.Data, &todos)
	require.Len(t, todos, 1)
	require.Equal(t, "mine", todos[0].Title)
	require.Equal(t, 1, resp.Meta.Total)
}
