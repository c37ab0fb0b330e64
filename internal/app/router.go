package app

import (
	httpserver "github.com/pybook/pybook-backend/internal/http"
)

func wireRouter(cfg Config, services Services, handlers Handlers, middleware Middleware) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		AvatarPath:     services.Avatar.PublicPath(),
		AvatarDir:      services.Avatar.Dir(),

		AuthMiddleware: middleware.Auth,

		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		OrganizationHandler: handlers.Organization,
		InvitationHandler:   handlers.Invitation,
		BookHandler:         handlers.Book,
		ChapterHandler:      handlers.Chapter,
		ProgressHandler:     handlers.Progress,
		ExecutionHandler:    handlers.Execution,
		BillingHandler:      handlers.Billing,
		ResourceHandler:     handlers.Resource,

		HealthHandler: handlers.Health,
	})
}
