package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/stackapp/internal/database/testutil"
	"github.com/charlesng35/stackapp/internal/models"
	apperrors "github.com/charlesng35/stackapp/pkg/errors"
)

func newTodoFixture(t *testing.T) (*TodoService, *models.User, *models.User) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	owner := &models.User{Email: "owner@example.com", Password: "x", IsActive: true}
	other := &models.User{Email: "other@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(other).Error)

	svc, err := NewTodoService(db)
	require.NoError(t, err)
	return svc, owner, other
}

func TestTodoCreateAndListNewestFirst(t *testing.T) {
	svc, owner, other := newTodoFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, owner.ID, CreateTodoInput{Title: "  first  ", Description: " "})
	require.NoError(t, err)
	require.Equal(t, "first", first.Title)
	require.Nil(t, first.Description)

	second, err := svc.Create(ctx, owner.ID, CreateTodoInput{Title: "second", Description: "details"})
	require.NoError(t, err)
	require.Equal(t, "details", *second.Description)

	_, err = svc.Create(ctx, other.ID, CreateTodoInput{Title: "not yours"})
	require.NoError(t, err)

	todos, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	require.Equal(t, second.ID, todos[0].ID)
	require.Equal(t, first.ID, todos[1].ID)
}

func TestTodoCreateValidation(t *testing.T) {
	svc, owner, _ := newTodoFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, CreateTodoInput{Title: "   "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.Create(ctx, owner.ID, CreateTodoInput{Title: strings.Repeat("t", 256)})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.Create(ctx, owner.ID, CreateTodoInput{Title: "ok", Description: strings.Repeat("d", 1025)})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestTodoToggleAndDeleteAreOwnerScoped(t *testing.T) {
	svc, owner, other := newTodoFixture(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, owner.ID, CreateTodoInput{Title: "mine"})
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, owner.ID, todo.ID)
	require.NoError(t, err)
	require.True(t, toggled.IsDone)

	toggled, err = svc.Toggle(ctx, owner.ID, todo.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsDone)

	_, err = svc.Toggle(ctx, other.ID, todo.ID)
	require.ErrorIs(t, err, ErrTodoNotFound)
	require.ErrorIs(t, svc.Delete(ctx, other.ID, todo.ID), ErrTodoNotFound)

	todos, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.False(t, todos[0].IsDone)

	require.NoError(t, svc.Delete(ctx, owner.ID, todo.ID))
	require.ErrorIs(t, svc.Delete(ctx, owner.ID, todo.ID), ErrTodoNotFound)
}
