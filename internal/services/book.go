package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/clients/pypi"
	"github.com/pybook/pybook-backend/internal/content"
	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

// SectionInput is one section of a wizard payload. Position in the slice is
// authoritative: stored orders are renumbered from it on every save.
type SectionInput struct {
	ID            *uuid.UUID `json:"id,omitempty"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	ExecutionMode string     `json:"execution_mode"`
	DependsOn     []string   `json:"depends_on,omitempty"`
}

type ChapterInput struct {
	ID                   *uuid.UUID     `json:"id,omitempty"`
	Title                string         `json:"title"`
	Emoji                string         `json:"emoji"`
	DefaultExecutionMode string         `json:"default_execution_mode"`
	Packages             []string       `json:"packages"`
	EstimatedMinutes     int            `json:"estimated_minutes"`
	Sections             []SectionInput `json:"sections"`
}

type BookInput struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Difficulty     string         `json:"difficulty"`
	Category       string         `json:"category"`
	EstimatedHours int            `json:"estimated_hours"`
	Tags           []string       `json:"tags"`
	Chapters       []ChapterInput `json:"chapters"`
	// BaseVersion guards updates: a stale value means someone else saved the
	// tree since this draft was loaded, and the save is rejected.
	BaseVersion int `json:"base_version,omitempty"`
}

type BookService interface {
	CreateTree(ctx context.Context, orgID, createdBy uuid.UUID, input BookInput) (*types.Book, error)
	UpdateTree(ctx context.Context, orgID, bookID uuid.UUID, input BookInput) (*types.Book, error)
	GetTree(ctx context.Context, orgID, bookID uuid.UUID) (*types.Book, error)
	List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*types.Book, error)
	// ListAccessible is the learner-facing catalog: admins and instructors
	// see every published book in the org, learners only the books they were
	// explicitly granted.
	ListAccessible(ctx context.Context, orgID, userID uuid.UUID, role string) ([]*types.Book, error)
	GrantAccess(ctx context.Context, orgID, bookID, userID, grantedBy uuid.UUID) error
	RevokeAccess(ctx context.Context, orgID, bookID, userID uuid.UUID) error
	ListAccess(ctx context.Context, orgID, bookID uuid.UUID) ([]*types.BookAccess, error)
	SetPublished(ctx context.Context, orgID, bookID uuid.UUID, published bool) error
	ReorderChapters(ctx context.Context, orgID, bookID uuid.UUID, chapterIDs []uuid.UUID) error
	Delete(ctx context.Context, orgID, bookID uuid.UUID) error
}

type bookService struct {
	db          *gorm.DB
	log         *logger.Logger
	bookRepo    repos.BookRepo
	chapterRepo repos.ChapterRepo
	sectionRepo repos.SectionRepo
	accessRepo  repos.BookAccessRepo
	userRepo    repos.UserRepo
	packageSvc  PackageService
}

func NewBookService(
	db *gorm.DB,
	log *logger.Logger,
	bookRepo repos.BookRepo,
	chapterRepo repos.ChapterRepo,
	sectionRepo repos.SectionRepo,
	accessRepo repos.BookAccessRepo,
	userRepo repos.UserRepo,
	packageSvc PackageService,
) BookService {
	return &bookService{
		db:          db,
		log:         log.With("service", "BookService"),
		bookRepo:    bookRepo,
		chapterRepo: chapterRepo,
		sectionRepo: sectionRepo,
		accessRepo:  accessRepo,
		userRepo:    userRepo,
		packageSvc:  packageSvc,
	}
}

// validateInput normalizes enums and checks structural rules before any row
// is touched. Returned chapters carry canonical values.
func (bs *bookService) validateInput(ctx context.Context, input *BookInput) error {
	input.Title = normalization.ParseInputString(input.Title)
	if input.Title == "" {
		return fmt.Errorf("book title is required: %w", apperrors.ErrInvalidArgument)
	}
	// The same guards the course-builder flow walks gate the API save: a
	// payload that could not reach Review is not persisted.
	wiz := content.NewWizard()
	wiz.Draft = content.WizardDraft{Title: input.Title}
	for _, ch := range input.Chapters {
		wiz.Draft.Chapters = append(wiz.Draft.Chapters, content.DraftChapter{
			Title:    ch.Title,
			Sections: len(ch.Sections),
		})
	}
	for wiz.Step() != content.StepReview {
		if err := wiz.Next(); err != nil {
			return fmt.Errorf("%s: %w", err, apperrors.ErrInvalidArgument)
		}
	}

	input.Difficulty = canonicalOrDefault(input.Difficulty, types.BookDifficulties, "BEGINNER")
	input.Category = canonicalOrDefault(input.Category, types.BookCategories, "GENERAL")
	if input.EstimatedHours <= 0 {
		input.EstimatedHours = 1
	}

	allPackages := content.NewPackageSet()
	for ci := range input.Chapters {
		ch := &input.Chapters[ci]
		ch.Title = normalization.ParseInputString(ch.Title)
		if ch.Title == "" {
			return fmt.Errorf("chapter %d title is required: %w", ci+1, apperrors.ErrInvalidArgument)
		}
		if ch.DefaultExecutionMode == "" {
			ch.DefaultExecutionMode = string(content.ModeShared)
		}
		mode, err := content.ParseChapterMode(ch.DefaultExecutionMode)
		if err != nil {
			return err
		}
		ch.DefaultExecutionMode = string(mode)

		pkgs := content.NewPackageSet()
		for _, p := range ch.Packages {
			if normalization.NormalizePackageName(p) == "" {
				return &content.ValidationError{Field: "package", Value: p}
			}
			pkgs.Add(p)
			allPackages.Add(p)
		}
		ch.Packages = pkgs.Sorted()

		deps := make([]content.SectionDeps, 0, len(ch.Sections))
		for si := range ch.Sections {
			sec := &ch.Sections[si]
			st, err := content.ParseSectionType(sec.Type)
			if err != nil {
				return err
			}
			sec.Type = string(st)
			if sec.ExecutionMode == "" {
				sec.ExecutionMode = string(content.ModeInherit)
			}
			em, err := content.ParseMode(sec.ExecutionMode)
			if err != nil {
				return err
			}
			sec.ExecutionMode = string(em)
			deps = append(deps, content.SectionDeps{
				ID:        sectionDepKey(sec, si),
				DependsOn: sec.DependsOn,
			})
		}
		if _, err := content.ValidateDependencies(deps); err != nil {
			return fmt.Errorf("chapter %q: %w", ch.Title, err)
		}
	}

	// Every referenced package must verifiably exist before the tree is
	// accepted; an inconclusive check blocks the save as retryable.
	names := allPackages.Sorted()
	if len(names) > 0 {
		checks, err := bs.packageSvc.ValidateAll(ctx, names)
		if err != nil {
			return err
		}
		for _, check := range checks {
			switch check.Result {
			case pypi.ResultInvalid:
				return &content.ValidationError{Field: "package", Value: check.Name}
			case pypi.ResultUnknown:
				return fmt.Errorf("could not verify package %q: %w", check.Name, ErrPackageCheckFailed)
			}
		}
	}
	return nil
}

// sectionDepKey matches whatever identifier the payload's dependsOn entries
// use: existing sections are referenced by id, new ones by list position.
func sectionDepKey(sec *SectionInput, position int) string {
	if sec.ID != nil {
		return sec.ID.String()
	}
	return fmt.Sprintf("new-%d", position)
}

func (bs *bookService) CreateTree(ctx context.Context, orgID, createdBy uuid.UUID, input BookInput) (*types.Book, error) {
	if err := bs.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	book := &types.Book{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          input.Title,
		Description:    normalization.ParseInputString(input.Description),
		Difficulty:     input.Difficulty,
		Category:       input.Category,
		EstimatedHours: input.EstimatedHours,
		Tags:           mustJSON(input.Tags),
		CreatedBy:      createdBy,
		Version:        1,
	}

	err := bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, sErr := bs.uniqueSlug(ctx, tx, input.Title)
		if sErr != nil {
			return sErr
		}
		book.Slug = slug

		siblings, lErr := bs.bookRepo.GetByOrgID(ctx, tx, orgID, false)
		if lErr != nil {
			return fmt.Errorf("list books for ordering: %w", lErr)
		}
		book.Order = len(siblings)

		if _, cErr := bs.bookRepo.Create(ctx, tx, []*types.Book{book}); cErr != nil {
			return fmt.Errorf("create book: %w", cErr)
		}
		return bs.insertChapters(ctx, tx, book.ID, input.Chapters)
	})
	if err != nil {
		return nil, err
	}
	bs.log.Info("book created", "book_id", book.ID, "org_id", orgID, "chapters", len(input.Chapters))
	return bs.GetTree(ctx, orgID, book.ID)
}

func (bs *bookService) insertChapters(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, inputs []ChapterInput) error {
	chapters := make([]*types.Chapter, 0, len(inputs))
	sections := make([]*types.Section, 0)
	for order, ci := range inputs {
		chapter := &types.Chapter{
			ID:                   uuid.New(),
			BookID:               bookID,
			Title:                ci.Title,
			Emoji:                ci.Emoji,
			Order:                order,
			DefaultExecutionMode: ci.DefaultExecutionMode,
			Packages:             mustJSON(ci.Packages),
			EstimatedMinutes:     ci.EstimatedMinutes,
			Version:              1,
		}
		chapters = append(chapters, chapter)
		for sOrder, si := range ci.Sections {
			sections = append(sections, &types.Section{
				ID:            uuid.New(),
				ChapterID:     chapter.ID,
				Type:          si.Type,
				Title:         normalization.ParseInputString(si.Title),
				Content:       si.Content,
				ExecutionMode: si.ExecutionMode,
				Order:         sOrder,
				DependsOn:     mustJSON(si.DependsOn),
			})
		}
	}
	if len(chapters) > 0 {
		if _, err := bs.chapterRepo.Create(ctx, tx, chapters); err != nil {
			return fmt.Errorf("create chapters: %w", err)
		}
	}
	if len(sections) > 0 {
		if _, err := bs.sectionRepo.Create(ctx, tx, sections); err != nil {
			return fmt.Errorf("create sections: %w", err)
		}
	}
	return nil
}

// UpdateTree replaces the book's chapter/section tree with the payload,
// CAS-guarded on the book version. Chapters and sections that carry ids are
// updated in place so learner progress and telemetry keep their references;
// the rest are created, and rows absent from the payload are deleted.
func (bs *bookService) UpdateTree(ctx context.Context, orgID, bookID uuid.UUID, input BookInput) (*types.Book, error) {
	if err := bs.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	err := bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, bErr := bs.ownedBook(ctx, tx, orgID, bookID)
		if bErr != nil {
			return bErr
		}

		baseVersion := input.BaseVersion
		if baseVersion == 0 {
			baseVersion = book.Version
		}
		fields := map[string]interface{}{
			"title":           input.Title,
			"description":     normalization.ParseInputString(input.Description),
			"difficulty":      input.Difficulty,
			"category":        input.Category,
			"estimated_hours": input.EstimatedHours,
			"tags":            mustJSON(input.Tags),
		}
		if uErr := bs.bookRepo.UpdateVersioned(ctx, tx, bookID, baseVersion, fields); uErr != nil {
			return uErr
		}

		existingChapters, cErr := bs.chapterRepo.GetByBookIDs(ctx, tx, []uuid.UUID{bookID})
		if cErr != nil {
			return fmt.Errorf("load chapters: %w", cErr)
		}
		byID := make(map[uuid.UUID]*types.Chapter, len(existingChapters))
		chapterIDs := make([]uuid.UUID, 0, len(existingChapters))
		for _, ch := range existingChapters {
			byID[ch.ID] = ch
			chapterIDs = append(chapterIDs, ch.ID)
		}
		existingSections, sErr := bs.sectionRepo.GetByChapterIDs(ctx, tx, chapterIDs)
		if sErr != nil {
			return fmt.Errorf("load sections: %w", sErr)
		}
		sectionByID := make(map[uuid.UUID]*types.Section, len(existingSections))
		for _, s := range existingSections {
			sectionByID[s.ID] = s
		}

		keptChapters := make(map[uuid.UUID]bool)
		keptSections := make(map[uuid.UUID]bool)
		newChapters := make([]*types.Chapter, 0)
		newSections := make([]*types.Section, 0)

		for order, ci := range input.Chapters {
			var chapterID uuid.UUID
			if ci.ID != nil {
				existing, ok := byID[*ci.ID]
				if !ok {
					return fmt.Errorf("chapter %s not in book: %w", ci.ID, apperrors.ErrInvalidArgument)
				}
				chapterID = existing.ID
				keptChapters[chapterID] = true
				chFields := map[string]interface{}{
					"title":                  ci.Title,
					"emoji":                  ci.Emoji,
					"display_order":          order,
					"default_execution_mode": ci.DefaultExecutionMode,
					"packages":               mustJSON(ci.Packages),
					"estimated_minutes":      ci.EstimatedMinutes,
				}
				if uErr := bs.chapterRepo.UpdateVersioned(ctx, tx, chapterID, existing.Version, chFields); uErr != nil {
					return uErr
				}
			} else {
				chapterID = uuid.New()
				newChapters = append(newChapters, &types.Chapter{
					ID:                   chapterID,
					BookID:               bookID,
					Title:                ci.Title,
					Emoji:                ci.Emoji,
					Order:                order,
					DefaultExecutionMode: ci.DefaultExecutionMode,
					Packages:             mustJSON(ci.Packages),
					EstimatedMinutes:     ci.EstimatedMinutes,
					Version:              1,
				})
			}
			for sOrder, si := range ci.Sections {
				if si.ID != nil {
					existing, ok := sectionByID[*si.ID]
					if !ok || existing.ChapterID != chapterID {
						return fmt.Errorf("section %s not in chapter: %w", si.ID, apperrors.ErrInvalidArgument)
					}
					keptSections[existing.ID] = true
					secFields := map[string]interface{}{
						"title":          normalization.ParseInputString(si.Title),
						"content":        si.Content,
						"execution_mode": si.ExecutionMode,
						"display_order":  sOrder,
						"depends_on":     mustJSON(si.DependsOn),
					}
					if uErr := bs.sectionRepo.UpdateFields(ctx, tx, existing.ID, secFields); uErr != nil {
						return fmt.Errorf("update section: %w", uErr)
					}
				} else {
					newSections = append(newSections, &types.Section{
						ID:            uuid.New(),
						ChapterID:     chapterID,
						Type:          si.Type,
						Title:         normalization.ParseInputString(si.Title),
						Content:       si.Content,
						ExecutionMode: si.ExecutionMode,
						Order:         sOrder,
						DependsOn:     mustJSON(si.DependsOn),
					})
				}
			}
		}

		if len(newChapters) > 0 {
			if _, cErr := bs.chapterRepo.Create(ctx, tx, newChapters); cErr != nil {
				return fmt.Errorf("create chapters: %w", cErr)
			}
		}
		if len(newSections) > 0 {
			if _, cErr := bs.sectionRepo.Create(ctx, tx, newSections); cErr != nil {
				return fmt.Errorf("create sections: %w", cErr)
			}
		}

		dropChapters := make([]uuid.UUID, 0)
		for _, ch := range existingChapters {
			if !keptChapters[ch.ID] {
				dropChapters = append(dropChapters, ch.ID)
			}
		}
		if len(dropChapters) > 0 {
			if dErr := bs.sectionRepo.FullDeleteByChapterIDs(ctx, tx, dropChapters); dErr != nil {
				return fmt.Errorf("delete orphan sections: %w", dErr)
			}
			if dErr := bs.chapterRepo.FullDeleteByIDs(ctx, tx, dropChapters); dErr != nil {
				return fmt.Errorf("delete removed chapters: %w", dErr)
			}
		}
		dropSections := make([]uuid.UUID, 0)
		for _, s := range existingSections {
			if !keptSections[s.ID] && keptChapters[s.ChapterID] {
				dropSections = append(dropSections, s.ID)
			}
		}
		if len(dropSections) > 0 {
			if dErr := bs.sectionRepo.FullDeleteByIDs(ctx, tx, dropSections); dErr != nil {
				return fmt.Errorf("delete removed sections: %w", dErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	bs.log.Info("book tree updated", "book_id", bookID, "org_id", orgID)
	return bs.GetTree(ctx, orgID, bookID)
}

func (bs *bookService) GetTree(ctx context.Context, orgID, bookID uuid.UUID) (*types.Book, error) {
	book, err := bs.ownedBook(ctx, nil, orgID, bookID)
	if err != nil {
		return nil, err
	}
	chapters, err := bs.chapterRepo.GetByBookIDs(ctx, nil, []uuid.UUID{bookID})
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	chapterIDs := make([]uuid.UUID, 0, len(chapters))
	for _, ch := range chapters {
		chapterIDs = append(chapterIDs, ch.ID)
	}
	sections, err := bs.sectionRepo.GetByChapterIDs(ctx, nil, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	byChapter := make(map[uuid.UUID][]*types.Section)
	for _, s := range sections {
		byChapter[s.ChapterID] = append(byChapter[s.ChapterID], s)
	}
	for _, ch := range chapters {
		ch.Sections = byChapter[ch.ID]
	}
	book.Chapters = chapters
	return book, nil
}

func (bs *bookService) List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*types.Book, error) {
	books, err := bs.bookRepo.GetByOrgID(ctx, nil, orgID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (bs *bookService) ListAccessible(ctx context.Context, orgID, userID uuid.UUID, role string) ([]*types.Book, error) {
	published, err := bs.bookRepo.GetByOrgID(ctx, nil, orgID, true)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if types.RoleAtLeast(role, types.RoleInstructor) {
		return published, nil
	}
	grants, err := bs.accessRepo.GetByUserID(ctx, nil, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("list book access: %w", err)
	}
	granted := make(map[uuid.UUID]bool, len(grants))
	for _, g := range grants {
		granted[g.BookID] = true
	}
	accessible := make([]*types.Book, 0, len(grants))
	for _, b := range published {
		if granted[b.ID] {
			accessible = append(accessible, b)
		}
	}
	return accessible, nil
}

func (bs *bookService) GrantAccess(ctx context.Context, orgID, bookID, userID, grantedBy uuid.UUID) error {
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.ownedBook(ctx, tx, orgID, bookID); err != nil {
			return err
		}
		users, err := bs.userRepo.GetByIDs(ctx, tx, []uuid.UUID{userID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 || users[0].OrganizationID != orgID {
			return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		grant := &types.BookAccess{
			ID:             uuid.New(),
			OrganizationID: orgID,
			BookID:         bookID,
			UserID:         userID,
			GrantedBy:      grantedBy,
		}
		if _, err := bs.accessRepo.Create(ctx, tx, []*types.BookAccess{grant}); err != nil {
			return fmt.Errorf("grant book access: %w", err)
		}
		return nil
	})
}

func (bs *bookService) RevokeAccess(ctx context.Context, orgID, bookID, userID uuid.UUID) error {
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.ownedBook(ctx, tx, orgID, bookID); err != nil {
			return err
		}
		return bs.accessRepo.DeleteByBookAndUser(ctx, tx, bookID, userID)
	})
}

func (bs *bookService) ListAccess(ctx context.Context, orgID, bookID uuid.UUID) ([]*types.BookAccess, error) {
	if _, err := bs.ownedBook(ctx, nil, orgID, bookID); err != nil {
		return nil, err
	}
	grants, err := bs.accessRepo.GetByBookID(ctx, nil, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book access: %w", err)
	}
	return grants, nil
}

func (bs *bookService) SetPublished(ctx context.Context, orgID, bookID uuid.UUID, published bool) error {
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.ownedBook(ctx, tx, orgID, bookID); err != nil {
			return err
		}
		return bs.bookRepo.UpdateFields(ctx, tx, bookID, map[string]interface{}{"is_published": published})
	})
}

// ReorderChapters persists the given permutation, renumbered to a contiguous
// zero-based sequence in one transaction.
func (bs *bookService) ReorderChapters(ctx context.Context, orgID, bookID uuid.UUID, chapterIDs []uuid.UUID) error {
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.ownedBook(ctx, tx, orgID, bookID); err != nil {
			return err
		}
		existing, err := bs.chapterRepo.GetByBookIDs(ctx, tx, []uuid.UUID{bookID})
		if err != nil {
			return fmt.Errorf("load chapters: %w", err)
		}
		if err := checkPermutation(existing, chapterIDs); err != nil {
			return err
		}
		ids := make([]string, 0, len(chapterIDs))
		for _, id := range chapterIDs {
			ids = append(ids, id.String())
		}
		orders := make(map[uuid.UUID]int, len(ids))
		for _, pair := range content.NewOrderedList(ids...).Orders() {
			id, pErr := uuid.Parse(pair.ID)
			if pErr != nil {
				return fmt.Errorf("parse chapter id: %w", pErr)
			}
			orders[id] = pair.Order
		}
		return bs.chapterRepo.UpdateOrders(ctx, tx, orders)
	})
}

func (bs *bookService) Delete(ctx context.Context, orgID, bookID uuid.UUID) error {
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.ownedBook(ctx, tx, orgID, bookID); err != nil {
			return err
		}
		chapters, cErr := bs.chapterRepo.GetByBookIDs(ctx, tx, []uuid.UUID{bookID})
		if cErr != nil {
			return fmt.Errorf("load chapters: %w", cErr)
		}
		chapterIDs := make([]uuid.UUID, 0, len(chapters))
		for _, ch := range chapters {
			chapterIDs = append(chapterIDs, ch.ID)
		}
		if len(chapterIDs) > 0 {
			if dErr := bs.sectionRepo.FullDeleteByChapterIDs(ctx, tx, chapterIDs); dErr != nil {
				return fmt.Errorf("delete sections: %w", dErr)
			}
			if dErr := bs.chapterRepo.FullDeleteByIDs(ctx, tx, chapterIDs); dErr != nil {
				return fmt.Errorf("delete chapters: %w", dErr)
			}
		}
		if dErr := bs.accessRepo.FullDeleteByBookIDs(ctx, tx, []uuid.UUID{bookID}); dErr != nil {
			return fmt.Errorf("delete book access: %w", dErr)
		}
		if dErr := bs.bookRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{bookID}); dErr != nil {
			return fmt.Errorf("delete book: %w", dErr)
		}
		// Close the ordering gap left by the deleted book.
		remaining, lErr := bs.bookRepo.GetByOrgID(ctx, tx, orgID, false)
		if lErr != nil {
			return fmt.Errorf("list remaining books: %w", lErr)
		}
		sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].Order < remaining[j].Order })
		orders := make(map[uuid.UUID]int, len(remaining))
		for i, b := range remaining {
			orders[b.ID] = i
		}
		return bs.bookRepo.UpdateOrders(ctx, tx, orders)
	})
}

func (bs *bookService) ownedBook(ctx context.Context, tx *gorm.DB, orgID, bookID uuid.UUID) (*types.Book, error) {
	books, err := bs.bookRepo.GetByIDs(ctx, tx, []uuid.UUID{bookID})
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("book %s: %w", bookID, apperrors.ErrNotFound)
	}
	book := books[0]
	if book.OrganizationID != orgID {
		// Cross-tenant lookups read as not-found, not forbidden.
		return nil, fmt.Errorf("book %s: %w", bookID, apperrors.ErrNotFound)
	}
	return book, nil
}

func (bs *bookService) uniqueSlug(ctx context.Context, tx *gorm.DB, title string) (string, error) {
	base := normalization.Slugify(title)
	if base == "" {
		base = "book"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := bs.bookRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func checkPermutation(existing []*types.Chapter, ids []uuid.UUID) error {
	if len(existing) != len(ids) {
		return fmt.Errorf("reorder must list every chapter exactly once: %w", apperrors.ErrInvalidArgument)
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	known := make(map[uuid.UUID]bool, len(existing))
	for _, ch := range existing {
		known[ch.ID] = true
	}
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate chapter id %s: %w", id, apperrors.ErrInvalidArgument)
		}
		if !known[id] {
			return fmt.Errorf("chapter %s not in book: %w", id, apperrors.ErrInvalidArgument)
		}
		seen[id] = true
	}
	return nil
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

// canonicalOrDefault upper-cases and validates an enum value, substituting
// the default when the input is empty and rejecting nothing: unknown values
// fall back, matching how drafts from older clients are tolerated on read.
func canonicalOrDefault(v string, domain []string, def string) string {
	v = normalization.ParseInputString(v)
	if v == "" {
		return def
	}
	upper := normalization.UpperSnake(v)
	for _, d := range domain {
		if d == upper {
			return upper
		}
	}
	return def
}
