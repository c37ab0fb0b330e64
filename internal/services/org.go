package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

// ResetConfirmation is the exact body value required before an org reset is
// executed. Anything else, including lower-case variants, is rejected.
const ResetConfirmation = "DELETE"

type OrgUpdateInput struct {
	Name        *string `json:"name,omitempty"`
	Industry    *string `json:"industry,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`
}

type OrgStats struct {
	Members         int64 `json:"members"`
	Books           int   `json:"books"`
	PublishedBooks  int   `json:"publishedBooks"`
	PendingInvites  int   `json:"pendingInvites"`
	TotalExecutions int64 `json:"totalExecutions"`
}

type OrganizationService interface {
	Get(ctx context.Context, orgID uuid.UUID) (*types.Organization, error)
	// GetPublic resolves an org by slug for the invitation landing page.
	GetPublic(ctx context.Context, slug string) (*types.Organization, error)
	Update(ctx context.Context, orgID uuid.UUID, input OrgUpdateInput) (*types.Organization, error)
	Stats(ctx context.Context, orgID uuid.UUID) (*OrgStats, error)
	// Reset wipes the org's content: books, chapters, sections, progress,
	// executions, invitations and billing events. The org itself and its
	// users survive. confirmation must equal ResetConfirmation exactly.
	Reset(ctx context.Context, orgID uuid.UUID, confirmation string) error
}

type organizationService struct {
	db             *gorm.DB
	log            *logger.Logger
	orgRepo        repos.OrganizationRepo
	userRepo       repos.UserRepo
	bookRepo       repos.BookRepo
	bookAccessRepo repos.BookAccessRepo
	chapterRepo    repos.ChapterRepo
	sectionRepo    repos.SectionRepo
	progressRepo   repos.ProgressRepo
	executionRepo  repos.CodeExecutionRepo
	invitationRepo repos.InvitationRepo
	resourceRepo   repos.ResourceRepo
	billingRepo    repos.BillingEventRepo
}

func NewOrganizationService(
	db *gorm.DB,
	log *logger.Logger,
	orgRepo repos.OrganizationRepo,
	userRepo repos.UserRepo,
	bookRepo repos.BookRepo,
	bookAccessRepo repos.BookAccessRepo,
	chapterRepo repos.ChapterRepo,
	sectionRepo repos.SectionRepo,
	progressRepo repos.ProgressRepo,
	executionRepo repos.CodeExecutionRepo,
	invitationRepo repos.InvitationRepo,
	resourceRepo repos.ResourceRepo,
	billingRepo repos.BillingEventRepo,
) OrganizationService {
	return &organizationService{
		db:             db,
		log:            log.With("service", "OrganizationService"),
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		bookRepo:       bookRepo,
		bookAccessRepo: bookAccessRepo,
		chapterRepo:    chapterRepo,
		sectionRepo:    sectionRepo,
		progressRepo:   progressRepo,
		executionRepo:  executionRepo,
		invitationRepo: invitationRepo,
		resourceRepo:   resourceRepo,
		billingRepo:    billingRepo,
	}
}

func (s *organizationService) Get(ctx context.Context, orgID uuid.UUID) (*types.Organization, error) {
	orgs, err := s.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperrors.ErrNotFound)
	}
	return orgs[0], nil
}

func (s *organizationService) GetPublic(ctx context.Context, slug string) (*types.Organization, error) {
	orgs, err := s.orgRepo.GetBySlugs(ctx, nil, []string{normalization.Slugify(slug)})
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("organization %q: %w", slug, apperrors.ErrNotFound)
	}
	return orgs[0], nil
}

func (s *organizationService) Update(ctx context.Context, orgID uuid.UUID, input OrgUpdateInput) (*types.Organization, error) {
	fields := map[string]interface{}{}
	if input.Name != nil {
		name := normalization.ParseInputString(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("organization name cannot be empty: %w", apperrors.ErrInvalidArgument)
		}
		fields["name"] = name
	}
	if input.Industry != nil {
		fields["industry"] = normalization.ParseInputString(*input.Industry)
	}
	if input.Website != nil {
		fields["website"] = normalization.ParseInputString(*input.Website)
	}
	if input.Description != nil {
		fields["description"] = normalization.ParseInputString(*input.Description)
	}
	if len(fields) > 0 {
		if err := s.orgRepo.UpdateFields(ctx, nil, orgID, fields); err != nil {
			return nil, fmt.Errorf("update organization: %w", err)
		}
	}
	return s.Get(ctx, orgID)
}

func (s *organizationService) Stats(ctx context.Context, orgID uuid.UUID) (*OrgStats, error) {
	stats := &OrgStats{}

	members, err := s.userRepo.CountActiveByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	stats.Members = members

	books, err := s.bookRepo.GetByOrgID(ctx, nil, orgID, false)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	stats.Books = len(books)
	for _, b := range books {
		if b.IsPublished {
			stats.PublishedBooks++
		}
	}

	pending, err := s.invitationRepo.GetPendingByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	stats.PendingInvites = len(pending)

	executions, err := s.executionRepo.CountByOrgID(ctx, nil, orgID, repos.ExecutionFilter{})
	if err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}
	stats.TotalExecutions = executions
	return stats, nil
}

func (s *organizationService) Reset(ctx context.Context, orgID uuid.UUID, confirmation string) error {
	if confirmation != ResetConfirmation {
		return fmt.Errorf("reset requires confirmation %q: %w", ResetConfirmation, apperrors.ErrInvalidArgument)
	}
	if _, err := s.Get(ctx, orgID); err != nil {
		return err
	}
	orgIDs := []uuid.UUID{orgID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		books, bErr := s.bookRepo.GetByOrgID(ctx, tx, orgID, false)
		if bErr != nil {
			return fmt.Errorf("list books: %w", bErr)
		}
		bookIDs := make([]uuid.UUID, 0, len(books))
		for _, b := range books {
			bookIDs = append(bookIDs, b.ID)
		}
		if len(bookIDs) > 0 {
			chapters, cErr := s.chapterRepo.GetByBookIDs(ctx, tx, bookIDs)
			if cErr != nil {
				return fmt.Errorf("list chapters: %w", cErr)
			}
			chapterIDs := make([]uuid.UUID, 0, len(chapters))
			for _, ch := range chapters {
				chapterIDs = append(chapterIDs, ch.ID)
			}
			if len(chapterIDs) > 0 {
				if dErr := s.sectionRepo.FullDeleteByChapterIDs(ctx, tx, chapterIDs); dErr != nil {
					return fmt.Errorf("delete sections: %w", dErr)
				}
			}
			if dErr := s.chapterRepo.FullDeleteByBookIDs(ctx, tx, bookIDs); dErr != nil {
				return fmt.Errorf("delete chapters: %w", dErr)
			}
		}
		if dErr := s.progressRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete progress: %w", dErr)
		}
		if dErr := s.executionRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete executions: %w", dErr)
		}
		if dErr := s.invitationRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete invitations: %w", dErr)
		}
		if dErr := s.resourceRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete resources: %w", dErr)
		}
		if dErr := s.bookAccessRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete book access: %w", dErr)
		}
		if dErr := s.bookRepo.FullDeleteByOrgIDs(ctx, tx, orgIDs); dErr != nil {
			return fmt.Errorf("delete books: %w", dErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn("organization content reset", "org_id", orgID)
	return nil
}
