package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type ResourceHandler struct {
	resourceService services.ResourceService
}

func NewResourceHandler(resourceService services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// GET /api/resources
func (rh *ResourceHandler) List(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	activeOnly := c.Query("all") != "true"
	resources, err := rh.resourceService.List(c.Request.Context(), rd.OrgID, activeOnly)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": resources})
}

// POST /api/admin/resources
func (rh *ResourceHandler) Create(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var input services.ResourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	resource, err := rh.resourceService.Create(c.Request.Context(), rd.OrgID, rd.UserID, input)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resource": resource})
}

// PUT /api/admin/resources/:id
func (rh *ResourceHandler) Update(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	resourceID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var input services.ResourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	resource, err := rh.resourceService.Update(c.Request.Context(), rd.OrgID, resourceID, input)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resource": resource})
}

// PUT /api/admin/resources/:id/active
// body: { "active": true }
func (rh *ResourceHandler) SetActive(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	resourceID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := rh.resourceService.SetActive(c.Request.Context(), rd.OrgID, resourceID, req.Active); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/admin/resources/:id
func (rh *ResourceHandler) Delete(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	resourceID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := rh.resourceService.Delete(c.Request.Context(), rd.OrgID, resourceID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/admin/resources/reorder
// body: { "resource_ids": ["...", "..."] }
func (rh *ResourceHandler) Reorder(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		ResourceIDs []uuid.UUID `json:"resource_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := rh.resourceService.Reorder(c.Request.Context(), rd.OrgID, req.ResourceIDs); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
