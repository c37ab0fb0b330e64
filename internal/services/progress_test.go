package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

func TestProgressRecordUnknownChapter(t *testing.T) {
	svc := NewProgressService(nil, testLog(t), nil, &fakeChapterRepo{}, &fakeBookRepo{})
	_, err := svc.Record(context.Background(), uuid.New(), uuid.New(), ProgressInput{ChapterID: uuid.New()})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgressRecordCrossTenantChapter(t *testing.T) {
	bookID := uuid.New()
	chapterID := uuid.New()
	svc := NewProgressService(nil, testLog(t), nil,
		&fakeChapterRepo{chapter: &types.Chapter{ID: chapterID, BookID: bookID}},
		&fakeBookRepo{book: &types.Book{ID: bookID, OrganizationID: uuid.New()}},
	)
	_, err := svc.Record(context.Background(), uuid.New(), uuid.New(), ProgressInput{ChapterID: chapterID})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("cross-tenant chapter must read as not found, got %v", err)
	}
}
