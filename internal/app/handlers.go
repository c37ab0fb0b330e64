package app

import (
	"github.com/pybook/pybook-backend/internal/http/handlers"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Organization *handlers.OrganizationHandler
	Invitation   *handlers.InvitationHandler

	Book      *handlers.BookHandler
	Chapter   *handlers.ChapterHandler
	Progress  *handlers.ProgressHandler
	Execution *handlers.ExecutionHandler

	Billing  *handlers.BillingHandler
	Resource *handlers.ResourceHandler

	Health *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:         handlers.NewAuthHandler(services.Auth),
		User:         handlers.NewUserHandler(services.User),
		Organization: handlers.NewOrganizationHandler(services.Organization),
		Invitation:   handlers.NewInvitationHandler(services.Invitation),

		Book:      handlers.NewBookHandler(services.Book),
		Chapter:   handlers.NewChapterHandler(services.Chapter, services.Package),
		Progress:  handlers.NewProgressHandler(services.Progress),
		Execution: handlers.NewExecutionHandler(services.Execution),

		Billing:  handlers.NewBillingHandler(services.Billing, services.User),
		Resource: handlers.NewResourceHandler(services.Resource),

		Health: handlers.NewHealthHandler(),
	}
}
