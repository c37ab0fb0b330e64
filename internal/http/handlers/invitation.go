package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type InvitationHandler struct {
	invitationService services.InvitationService
}

func NewInvitationHandler(invitationService services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// POST /api/admin/invitations
func (ih *InvitationHandler) Send(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	invitation, err := ih.invitationService.Send(c.Request.Context(), rd.OrgID, rd.UserID, req.Email, req.Role)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"invitation": invitation})
}

// GET /api/invitations/validate?token=...
func (ih *InvitationHandler) Validate(c *gin.Context) {
	invitation, org, err := ih.invitationService.Validate(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"email":        invitation.Email,
		"role":         invitation.Role,
		"organization": gin.H{"name": org.Name, "slug": org.Slug},
		"expires_at":   invitation.ExpiresAt,
	})
}

// POST /api/invitations/accept
func (ih *InvitationHandler) Accept(c *gin.Context) {
	var req services.AcceptInvitationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := ih.invitationService.Accept(c.Request.Context(), req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// GET /api/admin/invitations
func (ih *InvitationHandler) Pending(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	invitations, err := ih.invitationService.Pending(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"invitations": invitations})
}

// DELETE /api/admin/invitations/:id
func (ih *InvitationHandler) Revoke(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	invitationID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if err := ih.invitationService.Revoke(c.Request.Context(), rd.OrgID, invitationID); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
