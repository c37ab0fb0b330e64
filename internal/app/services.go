package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/clients/pypi"
	redisclient "github.com/pybook/pybook-backend/internal/clients/redis"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/services"
)

type Services struct {
	Avatar services.AvatarService

	Auth services.AuthService
	User services.UserService

	Organization services.OrganizationService
	Invitation   services.InvitationService

	Package   services.PackageService
	Book      services.BookService
	Chapter   services.ChapterService
	Progress  services.ProgressService
	Execution services.ExecutionService

	Billing  services.BillingService
	Resource services.ResourceService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	avatarSvc, err := services.NewAvatarService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	// PyPI lookups go through Redis when it is configured; without it the
	// client still works, just uncached.
	var pypiOpts []pypi.Option
	if cache, err := redisclient.New(log); err != nil {
		log.Warn("Redis unavailable, package checks run uncached", "error", err)
	} else {
		pypiOpts = append(pypiOpts, pypi.WithCache(cache))
	}
	packageSvc := services.NewPackageService(log, pypi.New(log, pypiOpts...))

	authSvc := services.NewAuthService(
		db, log,
		r.Organization, r.User, r.UserToken, r.BillingEvent,
		avatarSvc,
		cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)
	userSvc := services.NewUserService(db, log, r.User, r.UserToken, avatarSvc)
	orgSvc := services.NewOrganizationService(
		db, log,
		r.Organization, r.User, r.Book, r.BookAccess, r.Chapter, r.Section,
		r.Progress, r.CodeExecution, r.Invitation, r.Resource, r.BillingEvent,
	)
	invitationSvc := services.NewInvitationService(db, log, r.Invitation, r.Organization, r.User, avatarSvc)

	bookSvc := services.NewBookService(db, log, r.Book, r.Chapter, r.Section, r.BookAccess, r.User, packageSvc)
	chapterSvc := services.NewChapterService(db, log, r.Book, r.Chapter, r.Section, packageSvc)
	progressSvc := services.NewProgressService(db, log, r.Progress, r.Chapter, r.Book)
	executionSvc := services.NewExecutionService(db, log, r.CodeExecution, chapterSvc)

	billingSvc := services.NewBillingService(
		db, log,
		r.Organization, r.User, r.BillingEvent,
		services.NewStripeProvider(log),
	)
	resourceSvc := services.NewResourceService(db, log, r.Resource)

	return Services{
		Avatar:       avatarSvc,
		Auth:         authSvc,
		User:         userSvc,
		Organization: orgSvc,
		Invitation:   invitationSvc,
		Package:      packageSvc,
		Book:         bookSvc,
		Chapter:      chapterSvc,
		Progress:     progressSvc,
		Execution:    executionSvc,
		Billing:      billingSvc,
		Resource:     resourceSvc,
	}, nil
}
