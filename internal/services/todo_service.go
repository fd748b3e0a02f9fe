package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/models"
	apperrors "github.com/charlesng35/stackapp/pkg/errors"
)

const (
	maxTodoTitle       = 255
	maxTodoDescription = 1024
)

type CreateTodoInput struct {
	Title       string
	Description string
}

// TodoService manages todos. Every operation is scoped to the owning user: ids belonging to
// someone else behave exactly like ids that do not exist.
type TodoService struct {
	db *gorm.DB
}

func NewTodoService(db *gorm.DB) (*TodoService, error) {
	if db == nil {
		return nil, errors.New("todo service: db is required")
	}
	return &TodoService{db: db}, nil
}

// List returns the user's todos, newest first.
func (s *TodoService) List(ctx context.Context, userID string) ([]models.Todo, error) {
	ctx = ensureContext(ctx)

	var todos []models.Todo
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("todo service: list: %w", err)
	}
	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, userID string, input CreateTodoInput) (*models.Todo, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if utf8.RuneCountInString(title) > maxTodoTitle {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("title must be at most %d characters", maxTodoTitle))
	}
	description := optionalString(input.Description)
	if description != nil && utf8.RuneCountInString(*description) > maxTodoDescription {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("description must be at most %d characters", maxTodoDescription))
	}

	todo := &models.Todo{
		UserID:      userID,
		Title:       title,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(todo).Error; err != nil {
		return nil, fmt.Errorf("todo service: create: %w", err)
	}
	return todo, nil
}

// Toggle flips the done flag of one of the user's todos.
func (s *TodoService) Toggle(ctx context.Context, userID string, todoID uint) (*models.Todo, error) {
	ctx = ensureContext(ctx)

	var todo models.Todo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", todoID, userID).Take(&todo).Error; err != nil {
			return err
		}
		todo.IsDone = !todo.IsDone
		return tx.Model(&todo).Update("is_done", todo.IsDone).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("todo service: toggle: %w", err)
	}
	return &todo, nil
}

func (s *TodoService) Delete(ctx context.Context, userID string, todoID uint) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", todoID, userID).Delete(&models.Todo{})
	if result.Error != nil {
		return fmt.Errorf("todo service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}
