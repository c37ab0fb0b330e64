package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

type ProgressInput struct {
	ChapterID uuid.UUID `json:"chapter_id"`
	Completed bool      `json:"completed"`
	TimeSpent int       `json:"time_spent,omitempty"`
	Score     *int      `json:"score,omitempty"`
}

type ProgressService interface {
	// Record upserts the single progress row per (user, chapter).
	Record(ctx context.Context, orgID, userID uuid.UUID, input ProgressInput) (*types.Progress, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Progress, error)
	ListForOrg(ctx context.Context, orgID uuid.UUID) ([]*types.Progress, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	progressRepo repos.ProgressRepo
	chapterRepo  repos.ChapterRepo
	bookRepo     repos.BookRepo
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	progressRepo repos.ProgressRepo,
	chapterRepo repos.ChapterRepo,
	bookRepo repos.BookRepo,
) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		progressRepo: progressRepo,
		chapterRepo:  chapterRepo,
		bookRepo:     bookRepo,
	}
}

func (ps *progressService) Record(ctx context.Context, orgID, userID uuid.UUID, input ProgressInput) (*types.Progress, error) {
	chapters, err := ps.chapterRepo.GetByIDs(ctx, nil, []uuid.UUID{input.ChapterID})
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("chapter %s: %w", input.ChapterID, apperrors.ErrNotFound)
	}
	chapter := chapters[0]
	books, err := ps.bookRepo.GetByIDs(ctx, nil, []uuid.UUID{chapter.BookID})
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if len(books) == 0 || books[0].OrganizationID != orgID {
		return nil, fmt.Errorf("chapter %s: %w", input.ChapterID, apperrors.ErrNotFound)
	}

	progress := &types.Progress{
		UserID:         userID,
		OrganizationID: orgID,
		BookID:         chapter.BookID,
		ChapterID:      chapter.ID,
		Completed:      input.Completed,
		TimeSpent:      input.TimeSpent,
		Score:          input.Score,
	}
	if input.Completed {
		now := time.Now()
		progress.CompletedAt = &now
	}

	var saved *types.Progress
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uErr error
		saved, uErr = ps.progressRepo.Upsert(ctx, tx, progress)
		if uErr != nil {
			return fmt.Errorf("upsert progress: %w", uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (ps *progressService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Progress, error) {
	rows, err := ps.progressRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

func (ps *progressService) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]*types.Progress, error) {
	rows, err := ps.progressRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("list org progress: %w", err)
	}
	return rows, nil
}
