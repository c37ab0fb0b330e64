package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type ExecutionHandler struct {
	executionService services.ExecutionService
}

func NewExecutionHandler(executionService services.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

// POST /api/code-executions
func (eh *ExecutionHandler) Record(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var input services.ExecutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	execution, err := eh.executionService.Record(c.Request.Context(), rd.OrgID, rd.UserID, input)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"execution": execution})
}

// GET /api/admin/code-executions?view=stats|detailed|recent
func (eh *ExecutionHandler) List(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	ctx := c.Request.Context()
	switch c.DefaultQuery("view", "stats") {
	case "stats":
		stats, summary, err := eh.executionService.Stats(ctx, rd.OrgID)
		if err != nil {
			response.RespondFromError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"stats": stats, "summary": summary})
	case "detailed", "recent":
		filter := services.ParseExecutionFilter(c.Query)
		rows, total, err := eh.executionService.List(ctx, rd.OrgID, filter)
		if err != nil {
			response.RespondFromError(c, err)
			return
		}
		response.RespondOK(c, gin.H{
			"executions": rows,
			"total":      total,
			"limit":      filter.Limit,
			"offset":     filter.Offset,
		})
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown view %q", c.Query("view")))
	}
}

// GET /api/admin/code-executions/export?format=csv|json
func (eh *ExecutionHandler) Export(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	filter := services.ParseExecutionFilter(c.Query)
	data, contentType, err := eh.executionService.Export(c.Request.Context(), rd.OrgID, format, filter)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	filename := fmt.Sprintf("code-executions-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
