package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/content"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

// SectionView is a section plus its resolved runtime placement. Markdown
// sections carry no resolution.
type SectionView struct {
	*types.Section
	EffectiveMode  string `json:"effective_mode,omitempty"`
	InterpreterKey string `json:"interpreter_key,omitempty"`
}

type ChapterView struct {
	*types.Chapter
	SectionViews []*SectionView `json:"sections"`
}

type ChapterService interface {
	// Get returns the chapter with ordered sections, each python section
	// annotated with its effective execution mode and interpreter key.
	Get(ctx context.Context, orgID, chapterID uuid.UUID) (*ChapterView, error)
	AddPackage(ctx context.Context, orgID, chapterID uuid.UUID, name string) ([]string, error)
	RemovePackage(ctx context.Context, orgID, chapterID uuid.UUID, name string) ([]string, error)
	ReorderSections(ctx context.Context, orgID, chapterID uuid.UUID, sectionIDs []uuid.UUID) error
	// ResolveSection derives (effective mode, interpreter key) for one
	// section, for echo-checking recorded executions.
	ResolveSection(ctx context.Context, orgID, chapterID, sectionID uuid.UUID) (content.Resolution, error)
}

type chapterService struct {
	db          *gorm.DB
	log         *logger.Logger
	bookRepo    repos.BookRepo
	chapterRepo repos.ChapterRepo
	sectionRepo repos.SectionRepo
	packageSvc  PackageService
}

func NewChapterService(
	db *gorm.DB,
	log *logger.Logger,
	bookRepo repos.BookRepo,
	chapterRepo repos.ChapterRepo,
	sectionRepo repos.SectionRepo,
	packageSvc PackageService,
) ChapterService {
	return &chapterService{
		db:          db,
		log:         log.With("service", "ChapterService"),
		bookRepo:    bookRepo,
		chapterRepo: chapterRepo,
		sectionRepo: sectionRepo,
		packageSvc:  packageSvc,
	}
}

func (cs *chapterService) Get(ctx context.Context, orgID, chapterID uuid.UUID) (*ChapterView, error) {
	chapter, err := cs.ownedChapter(ctx, nil, orgID, chapterID)
	if err != nil {
		return nil, err
	}
	sections, err := cs.sectionRepo.GetByChapterIDs(ctx, nil, []uuid.UUID{chapterID})
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}

	chapterRef := content.ChapterRef{
		ID:                   chapter.ID.String(),
		DefaultExecutionMode: content.Mode(chapter.DefaultExecutionMode),
	}
	views := make([]*SectionView, 0, len(sections))
	for _, s := range sections {
		view := &SectionView{Section: s}
		if s.Type == string(content.SectionPython) {
			res, rErr := content.Resolve(chapterRef, content.SectionRef{
				ID:            s.ID.String(),
				ChapterID:     s.ChapterID.String(),
				Type:          content.SectionType(s.Type),
				ExecutionMode: content.Mode(s.ExecutionMode),
			})
			if rErr != nil {
				// Fail closed: a chapter with corrupt mode data is not served.
				return nil, rErr
			}
			view.EffectiveMode = string(res.EffectiveMode)
			view.InterpreterKey = res.InterpreterKey
		}
		views = append(views, view)
	}
	return &ChapterView{Chapter: chapter, SectionViews: views}, nil
}

func (cs *chapterService) ResolveSection(ctx context.Context, orgID, chapterID, sectionID uuid.UUID) (content.Resolution, error) {
	chapter, err := cs.ownedChapter(ctx, nil, orgID, chapterID)
	if err != nil {
		return content.Resolution{}, err
	}
	sections, err := cs.sectionRepo.GetByIDs(ctx, nil, []uuid.UUID{sectionID})
	if err != nil {
		return content.Resolution{}, fmt.Errorf("load section: %w", err)
	}
	if len(sections) == 0 {
		return content.Resolution{}, fmt.Errorf("section %s: %w", sectionID, apperrors.ErrNotFound)
	}
	s := sections[0]
	return content.Resolve(
		content.ChapterRef{
			ID:                   chapter.ID.String(),
			DefaultExecutionMode: content.Mode(chapter.DefaultExecutionMode),
		},
		content.SectionRef{
			ID:            s.ID.String(),
			ChapterID:     s.ChapterID.String(),
			Type:          content.SectionType(s.Type),
			ExecutionMode: content.Mode(s.ExecutionMode),
		},
	)
}

// AddPackage validates the name against the index and adds it to the
// chapter's requirement set. Adding a package twice is a no-op.
func (cs *chapterService) AddPackage(ctx context.Context, orgID, chapterID uuid.UUID, name string) ([]string, error) {
	normalized, err := cs.packageSvc.ValidateForAdd(ctx, name)
	if err != nil {
		return nil, err
	}

	var result []string
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapter, cErr := cs.ownedChapter(ctx, tx, orgID, chapterID)
		if cErr != nil {
			return cErr
		}
		set := packageSetFromJSON(chapter.Packages)
		if !set.Add(normalized) {
			result = set.Sorted()
			return nil
		}
		result = set.Sorted()
		fields := map[string]interface{}{"packages": mustJSON(result)}
		return cs.chapterRepo.UpdateVersioned(ctx, tx, chapterID, chapter.Version, fields)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (cs *chapterService) RemovePackage(ctx context.Context, orgID, chapterID uuid.UUID, name string) ([]string, error) {
	var result []string
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapter, cErr := cs.ownedChapter(ctx, tx, orgID, chapterID)
		if cErr != nil {
			return cErr
		}
		set := packageSetFromJSON(chapter.Packages)
		if !set.Remove(name) {
			result = set.Sorted()
			return nil
		}
		result = set.Sorted()
		fields := map[string]interface{}{"packages": mustJSON(result)}
		return cs.chapterRepo.UpdateVersioned(ctx, tx, chapterID, chapter.Version, fields)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (cs *chapterService) ReorderSections(ctx context.Context, orgID, chapterID uuid.UUID, sectionIDs []uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.ownedChapter(ctx, tx, orgID, chapterID); err != nil {
			return err
		}
		existing, err := cs.sectionRepo.GetByChapterIDs(ctx, tx, []uuid.UUID{chapterID})
		if err != nil {
			return fmt.Errorf("load sections: %w", err)
		}
		if len(existing) != len(sectionIDs) {
			return fmt.Errorf("reorder must list every section exactly once: %w", apperrors.ErrInvalidArgument)
		}
		known := make(map[uuid.UUID]bool, len(existing))
		for _, s := range existing {
			known[s.ID] = true
		}
		seen := make(map[uuid.UUID]bool, len(sectionIDs))
		orders := make(map[uuid.UUID]int, len(sectionIDs))
		for i, id := range sectionIDs {
			if seen[id] || !known[id] {
				return fmt.Errorf("section %s invalid in reorder: %w", id, apperrors.ErrInvalidArgument)
			}
			seen[id] = true
			orders[id] = i
		}
		return cs.sectionRepo.UpdateOrders(ctx, tx, orders)
	})
}

// ownedChapter loads a chapter and verifies, via its book, that it belongs
// to the caller's org.
func (cs *chapterService) ownedChapter(ctx context.Context, tx *gorm.DB, orgID, chapterID uuid.UUID) (*types.Chapter, error) {
	chapters, err := cs.chapterRepo.GetByIDs(ctx, tx, []uuid.UUID{chapterID})
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, apperrors.ErrNotFound)
	}
	chapter := chapters[0]
	books, err := cs.bookRepo.GetByIDs(ctx, tx, []uuid.UUID{chapter.BookID})
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if len(books) == 0 || books[0].OrganizationID != orgID {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, apperrors.ErrNotFound)
	}
	return chapter, nil
}

func packageSetFromJSON(raw []byte) *content.PackageSet {
	var names []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &names)
	}
	return content.NewPackageSet(names...)
}
