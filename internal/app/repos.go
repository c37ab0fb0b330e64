package app

import (
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
)

type Repos struct {
	Organization  repos.OrganizationRepo
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Invitation    repos.InvitationRepo
	Book          repos.BookRepo
	BookAccess    repos.BookAccessRepo
	Chapter       repos.ChapterRepo
	Section       repos.SectionRepo
	Progress      repos.ProgressRepo
	CodeExecution repos.CodeExecutionRepo
	BillingEvent  repos.BillingEventRepo
	Resource      repos.ResourceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Organization:  repos.NewOrganizationRepo(db, log),
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Invitation:    repos.NewInvitationRepo(db, log),
		Book:          repos.NewBookRepo(db, log),
		BookAccess:    repos.NewBookAccessRepo(db, log),
		Chapter:       repos.NewChapterRepo(db, log),
		Section:       repos.NewSectionRepo(db, log),
		Progress:      repos.NewProgressRepo(db, log),
		CodeExecution: repos.NewCodeExecutionRepo(db, log),
		BillingEvent:  repos.NewBillingEventRepo(db, log),
		Resource:      repos.NewResourceRepo(db, log),
	}
}
