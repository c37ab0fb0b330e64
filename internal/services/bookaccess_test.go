package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

type fakeBookAccessRepo struct {
	grants []*types.BookAccess
}

func (f *fakeBookAccessRepo) Create(ctx context.Context, tx *gorm.DB, grants []*types.BookAccess) ([]*types.BookAccess, error) {
	f.grants = append(f.grants, grants...)
	return grants, nil
}

func (f *fakeBookAccessRepo) GetByUserID(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) ([]*types.BookAccess, error) {
	var out []*types.BookAccess
	for _, g := range f.grants {
		if g.OrganizationID == orgID && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeBookAccessRepo) GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.BookAccess, error) {
	var out []*types.BookAccess
	for _, g := range f.grants {
		if g.BookID == bookID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeBookAccessRepo) DeleteByBookAndUser(ctx context.Context, tx *gorm.DB, bookID, userID uuid.UUID) error {
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.BookID != bookID || g.UserID != userID {
			kept = append(kept, g)
		}
	}
	f.grants = kept
	return nil
}

func (f *fakeBookAccessRepo) FullDeleteByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) error {
	return nil
}

func (f *fakeBookAccessRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	return nil
}

func TestListAccessibleFiltersLearnerByGrant(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	granted := &types.Book{ID: uuid.New(), OrganizationID: orgID, Title: "Granted", IsPublished: true}
	other := &types.Book{ID: uuid.New(), OrganizationID: orgID, Title: "Other", IsPublished: true}

	bookRepo := &fakeBookRepo{published: []*types.Book{granted, other}}
	accessRepo := &fakeBookAccessRepo{grants: []*types.BookAccess{
		{ID: uuid.New(), OrganizationID: orgID, BookID: granted.ID, UserID: userID},
	}}
	svc := NewBookService(nil, testLog(t), bookRepo, nil, nil, accessRepo, nil, nil)

	books, err := svc.ListAccessible(context.Background(), orgID, userID, types.RoleLearner)
	if err != nil {
		t.Fatalf("ListAccessible: %v", err)
	}
	if len(books) != 1 || books[0].ID != granted.ID {
		t.Fatalf("expected only the granted book, got %d books", len(books))
	}
}

func TestListAccessibleInstructorSeesAllPublished(t *testing.T) {
	orgID := uuid.New()
	bookRepo := &fakeBookRepo{published: []*types.Book{
		{ID: uuid.New(), OrganizationID: orgID, Title: "One", IsPublished: true},
		{ID: uuid.New(), OrganizationID: orgID, Title: "Two", IsPublished: true},
	}}
	// Access grants must not be consulted for instructor and above.
	svc := NewBookService(nil, testLog(t), bookRepo, nil, nil, nil, nil, nil)

	books, err := svc.ListAccessible(context.Background(), orgID, uuid.New(), types.RoleInstructor)
	if err != nil {
		t.Fatalf("ListAccessible: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected full catalog, got %d books", len(books))
	}
}

func TestListAccessRejectsForeignBook(t *testing.T) {
	book := &types.Book{ID: uuid.New(), OrganizationID: uuid.New(), Title: "Foreign"}
	svc := NewBookService(nil, testLog(t), &fakeBookRepo{book: book}, nil, nil, &fakeBookAccessRepo{}, nil, nil)

	_, err := svc.ListAccess(context.Background(), uuid.New(), book.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a book in another org, got %v", err)
	}
}

func TestListAccessReturnsGrants(t *testing.T) {
	orgID := uuid.New()
	book := &types.Book{ID: uuid.New(), OrganizationID: orgID, Title: "Mine"}
	accessRepo := &fakeBookAccessRepo{grants: []*types.BookAccess{
		{ID: uuid.New(), OrganizationID: orgID, BookID: book.ID, UserID: uuid.New()},
		{ID: uuid.New(), OrganizationID: orgID, BookID: book.ID, UserID: uuid.New()},
	}}
	svc := NewBookService(nil, testLog(t), &fakeBookRepo{book: book}, nil, nil, accessRepo, nil, nil)

	grants, err := svc.ListAccess(context.Background(), orgID, book.ID)
	if err != nil {
		t.Fatalf("ListAccess: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
}
