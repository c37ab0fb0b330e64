package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/content"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondFromError maps service errors onto the wire taxonomy. Anything not
// wrapping a known sentinel is a 500 with no internal detail leaked.
func RespondFromError(c *gin.Context, err error) {
	var vErr *content.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, apperrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, apperrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, apperrors.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, apperrors.ErrUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "retry_later", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}
