package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

const maxAvatarUploadBytes = 5 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	me, err := uh.userService.Get(c.Request.Context(), rd.OrgID, rd.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /api/me/onboarding
func (uh *UserHandler) CompleteOnboarding(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := uh.userService.CompleteOnboarding(c.Request.Context(), rd.UserID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/me/avatar (raw image body)
func (uh *UserHandler) SetAvatar(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAvatarUploadBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := uh.userService.SetAvatarFromImage(c.Request.Context(), rd.OrgID, rd.UserID, raw)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"avatar_url": user.AvatarURL})
}

// GET /api/admin/members
func (uh *UserHandler) Members(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	members, err := uh.userService.Members(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": members})
}

// PUT /api/admin/members/:id
func (uh *UserHandler) UpdateMember(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req services.MemberUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	member, err := uh.userService.UpdateMember(c.Request.Context(), rd.OrgID, rd.UserID, userID, rd.Role, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"member": member})
}

// DELETE /api/admin/members/:id
func (uh *UserHandler) RemoveMember(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := uh.userService.RemoveMember(c.Request.Context(), rd.OrgID, rd.UserID, userID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
