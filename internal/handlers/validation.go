package handlers

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	appErrors "github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/response"
	appValidator "github.com/charlesng35/stackapp/pkg/validator"
)

const invalidPayload = "invalid request payload"

// bindAndValidate decodes a JSON body into dest. On failure it has already answered 400.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if msg := validationMessage(appValidator.ValidateStruct(dest)); msg != "" {
		response.Error(c, appErrors.NewBadRequest(msg))
		return false
	}
	return true
}

// bindForm decodes an urlencoded form into dest and returns the message to render beside the
// form when it does not validate.
func bindForm[T any](c *gin.Context, dest *T) (string, bool) {
	if err := c.ShouldBindWith(dest, binding.Form); err != nil {
		return "invalid form submission", false
	}
	if msg := validationMessage(appValidator.ValidateStruct(dest)); msg != "" {
		return msg, false
	}
	return "", true
}

func validationMessage(err error) string {
	if err == nil {
		return ""
	}
	var failures appValidator.ValidationErrors
	if stderrors.As(err, &failures) {
		return failures.Error()
	}
	return invalidPayload
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, key string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
