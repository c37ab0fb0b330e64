package repos

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("connect to postgres: %v", err)
	}
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		t.Fatalf("enable uuid-ossp extension: %v", err)
	}
	if err := gdb.AutoMigrate(&types.Organization{}, &types.Book{}, &types.Chapter{}, &types.Section{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func integrationLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func uniqueSlug(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func seedOrg(t *testing.T, gdb *gorm.DB, name string) *types.Organization {
	t.Helper()
	org := &types.Organization{
		ID:   uuid.New(),
		Name: name,
		Slug: uniqueSlug("it-org"),
	}
	if err := gdb.Create(org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("organization_id = ?", org.ID).Delete(&types.Book{})
		gdb.Unscoped().Where("id = ?", org.ID).Delete(&types.Organization{})
	})
	return org
}

func seedBook(t *testing.T, gdb *gorm.DB, repo BookRepo, orgID uuid.UUID, title string, published bool) *types.Book {
	t.Helper()
	book := &types.Book{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Slug:           uniqueSlug("it-book"),
		Title:          title,
		CreatedBy:      uuid.New(),
		IsPublished:    published,
		Version:        1,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.Book{book}); err != nil {
		t.Fatalf("seed book: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", book.ID).Delete(&types.Book{})
	})
	return book
}

func TestBookUpdateVersionedCAS(t *testing.T) {
	gdb := integrationDB(t)
	repo := NewBookRepo(gdb, integrationLog(t))
	ctx := context.Background()

	org := seedOrg(t, gdb, "CAS Org")
	book := seedBook(t, gdb, repo, org.ID, "Original", false)

	// A stale base version must not touch the row.
	err := repo.UpdateVersioned(ctx, nil, book.ID, 99, map[string]interface{}{"title": "Stale write"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("stale base: want ErrConflict, got %v", err)
	}
	loaded, err := repo.GetByIDs(ctx, nil, []uuid.UUID{book.ID})
	if err != nil || len(loaded) != 1 {
		t.Fatalf("reload book: %v (n=%d)", err, len(loaded))
	}
	if loaded[0].Title != "Original" || loaded[0].Version != 1 {
		t.Fatalf("stale write must not apply: title=%q version=%d", loaded[0].Title, loaded[0].Version)
	}

	// The matching base applies and bumps the version.
	if err := repo.UpdateVersioned(ctx, nil, book.ID, 1, map[string]interface{}{"title": "Renamed"}); err != nil {
		t.Fatalf("versioned update: %v", err)
	}
	loaded, err = repo.GetByIDs(ctx, nil, []uuid.UUID{book.ID})
	if err != nil || len(loaded) != 1 {
		t.Fatalf("reload book: %v (n=%d)", err, len(loaded))
	}
	if loaded[0].Title != "Renamed" || loaded[0].Version != 2 {
		t.Fatalf("after update: title=%q version=%d", loaded[0].Title, loaded[0].Version)
	}

	// A second writer still holding the old base loses the race.
	err = repo.UpdateVersioned(ctx, nil, book.ID, 1, map[string]interface{}{"title": "Lost race"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("lost race: want ErrConflict, got %v", err)
	}
}

func TestChapterUpdateVersionedCAS(t *testing.T) {
	gdb := integrationDB(t)
	log := integrationLog(t)
	bookRepo := NewBookRepo(gdb, log)
	chapterRepo := NewChapterRepo(gdb, log)
	ctx := context.Background()

	org := seedOrg(t, gdb, "Chapter CAS Org")
	book := seedBook(t, gdb, bookRepo, org.ID, "Book", false)

	chapter := &types.Chapter{
		ID:                   uuid.New(),
		BookID:               book.ID,
		Title:                "Setup",
		DefaultExecutionMode: "SHARED",
		Version:              1,
	}
	if _, err := chapterRepo.Create(ctx, nil, []*types.Chapter{chapter}); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", chapter.ID).Delete(&types.Chapter{})
	})

	err := chapterRepo.UpdateVersioned(ctx, nil, chapter.ID, 7, map[string]interface{}{"title": "Stale"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("stale base: want ErrConflict, got %v", err)
	}
	if err := chapterRepo.UpdateVersioned(ctx, nil, chapter.ID, 1, map[string]interface{}{"title": "Updated"}); err != nil {
		t.Fatalf("versioned update: %v", err)
	}
	loaded, err := chapterRepo.GetByBookIDs(ctx, nil, []uuid.UUID{book.ID})
	if err != nil || len(loaded) != 1 {
		t.Fatalf("reload chapter: %v (n=%d)", err, len(loaded))
	}
	if loaded[0].Title != "Updated" || loaded[0].Version != 2 {
		t.Fatalf("after update: title=%q version=%d", loaded[0].Title, loaded[0].Version)
	}
}

func TestBookQueriesAreOrgScoped(t *testing.T) {
	gdb := integrationDB(t)
	repo := NewBookRepo(gdb, integrationLog(t))
	ctx := context.Background()

	orgA := seedOrg(t, gdb, "Org A")
	orgB := seedOrg(t, gdb, "Org B")
	published := seedBook(t, gdb, repo, orgA.ID, "A published", true)
	draft := seedBook(t, gdb, repo, orgA.ID, "A draft", false)
	other := seedBook(t, gdb, repo, orgB.ID, "B book", true)

	books, err := repo.GetByOrgID(ctx, nil, orgA.ID, false)
	if err != nil {
		t.Fatalf("GetByOrgID: %v", err)
	}
	got := make(map[uuid.UUID]bool, len(books))
	for _, b := range books {
		got[b.ID] = true
	}
	if !got[published.ID] || !got[draft.ID] {
		t.Fatalf("org A books missing: %v", got)
	}
	if got[other.ID] {
		t.Fatalf("org B book leaked into org A listing")
	}

	publishedOnly, err := repo.GetByOrgID(ctx, nil, orgA.ID, true)
	if err != nil {
		t.Fatalf("GetByOrgID published: %v", err)
	}
	for _, b := range publishedOnly {
		if !b.IsPublished {
			t.Fatalf("draft %s returned from published-only listing", b.ID)
		}
		if b.OrganizationID != orgA.ID {
			t.Fatalf("book %s from org %s returned for org %s", b.ID, b.OrganizationID, orgA.ID)
		}
	}
}
