package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type OrganizationHandler struct {
	orgService services.OrganizationService
}

func NewOrganizationHandler(orgService services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// GET /api/organizations/public/:slug
func (oh *OrganizationHandler) GetPublic(c *gin.Context) {
	org, err := oh.orgService.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	// Only what an invitation landing page needs, never billing internals.
	response.RespondOK(c, gin.H{
		"name":     org.Name,
		"slug":     org.Slug,
		"industry": org.Industry,
	})
}

// GET /api/organizations/me
func (oh *OrganizationHandler) GetMine(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	org, err := oh.orgService.Get(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// PUT /api/organizations/me
func (oh *OrganizationHandler) Update(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req services.OrgUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	org, err := oh.orgService.Update(c.Request.Context(), rd.OrgID, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// GET /api/organizations/stats
func (oh *OrganizationHandler) Stats(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	stats, err := oh.orgService.Stats(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}

// POST /api/organizations/reset
// body: { "confirmation": "DELETE" }
func (oh *OrganizationHandler) Reset(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := oh.orgService.Reset(c.Request.Context(), rd.OrgID, req.Confirmation); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
