package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/pkg/errors"
)

// clientError unpacks AppErrors in the 4xx range so page handlers can re-render a form.
func clientError(err error) (int, string, bool) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
		return 0, "", false
	}
	return appErr.StatusCode, appErr.Message, true
}

func isNotFound(err error) bool {
	return stderrors.Is(err, services.ErrTodoNotFound) || stderrors.Is(err, errors.ErrNotFound)
}
