package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/http/response"
	"github.com/pybook/pybook-backend/internal/services"
)

type BillingHandler struct {
	billingService services.BillingService
	userService    services.UserService
}

func NewBillingHandler(billingService services.BillingService, userService services.UserService) *BillingHandler {
	return &BillingHandler{billingService: billingService, userService: userService}
}

// GET /api/subscription/status
func (bh *BillingHandler) Status(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	status, err := bh.billingService.Status(c.Request.Context(), rd.OrgID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"subscription": status})
}

// POST /api/organizations/setup-billing
func (bh *BillingHandler) SetupBilling(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	ctx := c.Request.Context()
	actor, err := bh.userService.Get(ctx, rd.OrgID, rd.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	org, err := bh.billingService.SetupBilling(ctx, rd.OrgID, actor.Email)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// POST /api/stripe/billing-portal
// body: { "return_url": "https://app.example.com/settings" }
func (bh *BillingHandler) Portal(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	var req struct {
		ReturnURL string `json:"return_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	url, err := bh.billingService.PortalURL(c.Request.Context(), rd.OrgID, req.ReturnURL)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// POST /api/admin/billing/trial-warnings
// Sweeps expiring trials and records warning events; meant to be hit by a
// scheduler.
func (bh *BillingHandler) TrialWarnings(c *gin.Context) {
	warned, err := bh.billingService.TrialWarningSweep(c.Request.Context())
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"warned": len(warned), "organizations": warned})
}

// GET /api/admin/billing/events?limit=50
func (bh *BillingHandler) Events(c *gin.Context) {
	rd, err := identity(c)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := bh.billingService.Events(c.Request.Context(), rd.OrgID, limit)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}
