package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// POST /api/progress
func (ph *ProgressHandler) Record(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var input services.ProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	progress, err := ph.progressService.Record(c.Request.Context(), rd.OrgID, rd.UserID, input)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}

// GET /api/progress
func (ph *ProgressHandler) ListMine(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	rows, err := ph.progressService.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}

// GET /api/admin/progress
func (ph *ProgressHandler) ListOrg(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	rows, err := ph.progressService.ListForOrg(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}
