package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/pybook/pybook-backend/internal/http/handlers"
	httpMW "github.com/pybook/pybook-backend/internal/http/middleware"
	"github.com/pybook/pybook-backend/internal/types"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins string
	AvatarPath     string
	AvatarDir      string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	OrganizationHandler *httpH.OrganizationHandler
	InvitationHandler   *httpH.InvitationHandler
	BookHandler         *httpH.BookHandler
	ChapterHandler      *httpH.ChapterHandler
	ProgressHandler     *httpH.ProgressHandler
	ExecutionHandler    *httpH.ExecutionHandler
	BillingHandler      *httpH.BillingHandler
	ResourceHandler     *httpH.ResourceHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.Trace(cfg.ServiceName))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Generated avatars are served straight off disk.
	if cfg.AvatarPath != "" && cfg.AvatarDir != "" {
		r.Static(cfg.AvatarPath, cfg.AvatarDir)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}

		// Invitations (public)
		if cfg.InvitationHandler != nil {
			api.GET("/invitations/validate", cfg.InvitationHandler.Validate)
			api.POST("/invitations/accept", cfg.InvitationHandler.Accept)
		}

		// Organization public profile
		if cfg.OrganizationHandler != nil {
			api.GET("/organizations/public/:slug", cfg.OrganizationHandler.GetPublic)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.POST("/me/onboarding", cfg.UserHandler.CompleteOnboarding)
			protected.PUT("/me/avatar", cfg.UserHandler.SetAvatar)
		}

		// Organization
		if cfg.OrganizationHandler != nil {
			protected.GET("/organizations/me", cfg.OrganizationHandler.GetMine)
		}

		// Books (published only unless staff asks for all)
		if cfg.BookHandler != nil {
			protected.GET("/books", cfg.BookHandler.List)
			protected.GET("/books/:id", cfg.BookHandler.Get)
			protected.GET("/user-books", cfg.BookHandler.Accessible)
		}

		// Chapters
		if cfg.ChapterHandler != nil {
			protected.GET("/chapters/:id", cfg.ChapterHandler.Get)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/progress", cfg.ProgressHandler.Record)
			protected.GET("/progress", cfg.ProgressHandler.ListMine)
		}

		// Code executions
		if cfg.ExecutionHandler != nil {
			protected.POST("/code-executions", cfg.ExecutionHandler.Record)
		}

		// Billing
		if cfg.BillingHandler != nil {
			protected.GET("/subscription/status", cfg.BillingHandler.Status)
		}

		// Resources
		if cfg.ResourceHandler != nil {
			protected.GET("/resources", cfg.ResourceHandler.List)
		}
	}

	admin := protected.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
		}

		// Authoring
		if cfg.BookHandler != nil {
			admin.POST("/admin/books", cfg.BookHandler.Create)
			admin.PUT("/admin/books/:id", cfg.BookHandler.Update)
			admin.PUT("/admin/books/:id/publish", cfg.BookHandler.SetPublished)
			admin.PUT("/admin/books/:id/chapters/reorder", cfg.BookHandler.ReorderChapters)
			admin.DELETE("/admin/books/:id", cfg.BookHandler.Delete)
			admin.GET("/admin/books/:id/access", cfg.BookHandler.ListAccess)
			admin.POST("/admin/books/:id/access", cfg.BookHandler.GrantAccess)
			admin.DELETE("/admin/books/:id/access/:userId", cfg.BookHandler.RevokeAccess)
		}
		if cfg.ChapterHandler != nil {
			admin.POST("/admin/chapters/:id/packages", cfg.ChapterHandler.AddPackage)
			admin.DELETE("/admin/chapters/:id/packages/:name", cfg.ChapterHandler.RemovePackage)
			admin.PUT("/admin/chapters/:id/sections/reorder", cfg.ChapterHandler.ReorderSections)
			admin.POST("/admin/packages/validate", cfg.ChapterHandler.ValidatePackages)
		}

		// Members
		if cfg.UserHandler != nil {
			admin.GET("/admin/members", cfg.UserHandler.Members)
			admin.PUT("/admin/members/:id", cfg.UserHandler.UpdateMember)
			admin.DELETE("/admin/members/:id", cfg.UserHandler.RemoveMember)
		}

		// Invitations
		if cfg.InvitationHandler != nil {
			admin.POST("/admin/invitations", cfg.InvitationHandler.Send)
			admin.GET("/admin/invitations", cfg.InvitationHandler.Pending)
			admin.DELETE("/admin/invitations/:id", cfg.InvitationHandler.Revoke)
		}

		// Organization management
		if cfg.OrganizationHandler != nil {
			admin.PUT("/organizations/me", cfg.OrganizationHandler.Update)
			admin.GET("/organizations/stats", cfg.OrganizationHandler.Stats)
		}

		// Progress (org-wide)
		if cfg.ProgressHandler != nil {
			admin.GET("/admin/progress", cfg.ProgressHandler.ListOrg)
		}

		// Execution analytics
		if cfg.ExecutionHandler != nil {
			admin.GET("/admin/code-executions", cfg.ExecutionHandler.List)
			admin.GET("/admin/code-executions/export", cfg.ExecutionHandler.Export)
		}

		// Billing
		if cfg.BillingHandler != nil {
			admin.POST("/organizations/setup-billing", cfg.BillingHandler.SetupBilling)
			admin.POST("/stripe/billing-portal", cfg.BillingHandler.Portal)
			admin.GET("/admin/billing/events", cfg.BillingHandler.Events)
			admin.POST("/admin/billing/trial-warnings", cfg.BillingHandler.TrialWarnings)
		}

		// Resources
		if cfg.ResourceHandler != nil {
			admin.POST("/admin/resources", cfg.ResourceHandler.Create)
			admin.PUT("/admin/resources/reorder", cfg.ResourceHandler.Reorder)
			admin.PUT("/admin/resources/:id", cfg.ResourceHandler.Update)
			admin.PUT("/admin/resources/:id/active", cfg.ResourceHandler.SetActive)
			admin.DELETE("/admin/resources/:id", cfg.ResourceHandler.Delete)
		}
	}

	owner := protected.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			owner.Use(cfg.AuthMiddleware.RequireRole(types.RoleOwner))
		}
		if cfg.OrganizationHandler != nil {
			owner.POST("/organizations/reset", cfg.OrganizationHandler.Reset)
		}
	}

	return r
}
