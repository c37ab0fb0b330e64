package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type BookHandler struct {
	bookService services.BookService
}

func NewBookHandler(bookService services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// GET /api/books              (learner view: published only)
// GET /api/books?all=true     (authors see drafts too; gated by router)
func (bh *BookHandler) List(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	publishedOnly := c.Query("all") != "true"
	books, err := bh.bookService.List(c.Request.Context(), rd.OrgID, publishedOnly)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"books": books})
}

// GET /api/books/:id
func (bh *BookHandler) Get(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	book, err := bh.bookService.GetTree(c.Request.Context(), rd.OrgID, bookID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// GET /api/user-books
// Role-aware catalog: staff see every published book, learners only the
// books granted to them.
func (bh *BookHandler) Accessible(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	books, err := bh.bookService.ListAccessible(c.Request.Context(), rd.OrgID, rd.UserID, rd.Role)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"books": books})
}

// GET /api/admin/books/:id/access
func (bh *BookHandler) ListAccess(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	grants, err := bh.bookService.ListAccess(c.Request.Context(), rd.OrgID, bookID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"access": grants})
}

// POST /api/admin/books/:id/access
// body: { "user_id": "..." }
func (bh *BookHandler) GrantAccess(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := bh.bookService.GrantAccess(c.Request.Context(), rd.OrgID, bookID, req.UserID, rd.UserID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/admin/books/:id/access/:userId
func (bh *BookHandler) RevokeAccess(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := bh.bookService.RevokeAccess(c.Request.Context(), rd.OrgID, bookID, userID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/books
func (bh *BookHandler) Create(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req services.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	book, err := bh.bookService.CreateTree(c.Request.Context(), rd.OrgID, rd.UserID, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// PUT /api/admin/books/:id
func (bh *BookHandler) Update(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req services.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	book, err := bh.bookService.UpdateTree(c.Request.Context(), rd.OrgID, bookID, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// PUT /api/admin/books/:id/publish
func (bh *BookHandler) SetPublished(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := bh.bookService.SetPublished(c.Request.Context(), rd.OrgID, bookID, req.Published); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/admin/books/:id/chapters/reorder
// body: { "chapter_ids": ["...", "..."] }
func (bh *BookHandler) ReorderChapters(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		ChapterIDs []uuid.UUID `json:"chapter_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := bh.bookService.ReorderChapters(c.Request.Context(), rd.OrgID, bookID, req.ChapterIDs); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/admin/books/:id
func (bh *BookHandler) Delete(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	bookID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := bh.bookService.Delete(c.Request.Context(), rd.OrgID, bookID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
