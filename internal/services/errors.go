package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/stackapp/pkg/errors"
)

var (
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	ErrEmailTaken   = apperrors.New("EMAIL_TAKEN", "Email already registered", http.StatusBadRequest)
	ErrUnknownRole  = apperrors.New("ROLE_NOT_FOUND", "Unknown role", http.StatusBadRequest)
	ErrSelfLockout  = apperrors.New("SELF_LOCKOUT", "Administrators cannot remove or deactivate themselves", http.StatusBadRequest)
	ErrTodoNotFound = apperrors.New("TODO_NOT_FOUND", "Todo not found", http.StatusNotFound)
	ErrItemNotFound = apperrors.New("ITEM_NOT_FOUND", "Item not found", http.StatusNotFound)
	ErrSlugTaken    = apperrors.New("SLUG_TAKEN", "Slug already in use", http.StatusConflict)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}
