package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type ChapterHandler struct {
	chapterService services.ChapterService
	packageService services.PackageService
}

func NewChapterHandler(chapterService services.ChapterService, packageService services.PackageService) *ChapterHandler {
	return &ChapterHandler{chapterService: chapterService, packageService: packageService}
}

// GET /api/chapters/:id
func (ch *ChapterHandler) Get(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	chapterID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	chapter, err := ch.chapterService.Get(c.Request.Context(), rd.OrgID, chapterID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": chapter})
}

// POST /api/admin/chapters/:id/packages
// body: { "name": "pandas" }
func (ch *ChapterHandler) AddPackage(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	chapterID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	packages, err := ch.chapterService.AddPackage(c.Request.Context(), rd.OrgID, chapterID, req.Name)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"packages": packages})
}

// DELETE /api/admin/chapters/:id/packages/:name
func (ch *ChapterHandler) RemovePackage(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	chapterID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	packages, err := ch.chapterService.RemovePackage(c.Request.Context(), rd.OrgID, chapterID, c.Param("name"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"packages": packages})
}

// POST /api/admin/packages/validate
// body: { "names": ["pandas", "numpy"] }
func (ch *ChapterHandler) ValidatePackages(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	checks, err := ch.packageService.ValidateAll(c.Request.Context(), req.Names)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": checks})
}

// PUT /api/admin/chapters/:id/sections/reorder
// body: { "section_ids": ["...", "..."] }
func (ch *ChapterHandler) ReorderSections(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	chapterID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		SectionIDs []uuid.UUID `json:"section_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ch.chapterService.ReorderSections(c.Request.Context(), rd.OrgID, chapterID, req.SectionIDs); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
