package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/requestdata"
)

// identity returns the verified request identity; RequireAuth guarantees it
// exists on protected routes.
func identity(c *gin.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no request identity: %w", apperrors.ErrUnauthorized)
	}
	return rd, nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, apperrors.ErrInvalidArgument)
	}
	return id, nil
}
