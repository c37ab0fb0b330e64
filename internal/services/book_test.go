package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pybook/pybook-backend/internal/clients/pypi"
	"github.com/pybook/pybook-backend/internal/content"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

func validatingBookService(t *testing.T, results map[string]pypi.CheckResult) *bookService {
	t.Helper()
	return &bookService{
		log:        testLog(t),
		packageSvc: NewPackageService(testLog(t), &fakePyPIClient{results: results}),
	}
}

func TestBookValidateCanonicalizesEnums(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{
		Title:      "  Intro to   Python ",
		Difficulty: "beginner",
		Category:   "data science",
		Chapters: []ChapterInput{{
			Title: "Setup",
			Sections: []SectionInput{
				{Type: "markdown", Title: "Welcome"},
				{Type: "python", Title: "Hello", ExecutionMode: "isolated"},
			},
		}},
	}
	if err := svc.validateInput(context.Background(), &input); err != nil {
		t.Fatalf("validateInput: %v", err)
	}
	if input.Title != "Intro to Python" {
		t.Fatalf("title: got=%q", input.Title)
	}
	if input.Difficulty != "BEGINNER" || input.Category != "DATA_SCIENCE" {
		t.Fatalf("enums not canonicalized: %q %q", input.Difficulty, input.Category)
	}
	if input.EstimatedHours != 1 {
		t.Fatalf("estimated hours must default to 1, got %d", input.EstimatedHours)
	}
	ch := input.Chapters[0]
	if ch.DefaultExecutionMode != string(content.ModeShared) {
		t.Fatalf("chapter mode must default to SHARED, got %q", ch.DefaultExecutionMode)
	}
	if ch.Sections[0].Type != string(content.SectionMarkdown) {
		t.Fatalf("section type: got=%q", ch.Sections[0].Type)
	}
	if ch.Sections[0].ExecutionMode != string(content.ModeInherit) {
		t.Fatalf("section mode must default to INHERIT, got %q", ch.Sections[0].ExecutionMode)
	}
	if ch.Sections[1].ExecutionMode != string(content.ModeIsolated) {
		t.Fatalf("section mode: got=%q", ch.Sections[1].ExecutionMode)
	}
}

func TestBookValidateUnknownEnumFallsBack(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{
		Title:      "Book",
		Difficulty: "impossible",
		Category:   "underwater basket weaving",
		Chapters: []ChapterInput{{
			Title:    "One",
			Sections: []SectionInput{{Type: "markdown", Title: "Intro"}},
		}},
	}
	if err := svc.validateInput(context.Background(), &input); err != nil {
		t.Fatalf("validateInput: %v", err)
	}
	if input.Difficulty != "BEGINNER" || input.Category != "GENERAL" {
		t.Fatalf("unknown enums must fall back to defaults: %q %q", input.Difficulty, input.Category)
	}
}

func TestBookValidateRejectsInheritAsChapterDefault(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{
		Title: "Book",
		Chapters: []ChapterInput{{
			Title:                "One",
			DefaultExecutionMode: "INHERIT",
			Sections:             []SectionInput{{Type: "markdown", Title: "Intro"}},
		}},
	}
	err := svc.validateInput(context.Background(), &input)
	var vErr *content.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "default_execution_mode" {
		t.Fatalf("field: got=%q", vErr.Field)
	}
}

func TestBookValidateRequiresChapters(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{Title: "Book"}
	if err := svc.validateInput(context.Background(), &input); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBookValidateRejectsChapterWithoutSections(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{
		Title: "Book",
		Chapters: []ChapterInput{
			{Title: "Full", Sections: []SectionInput{{Type: "markdown", Title: "Intro"}}},
			{Title: "Empty chapter"},
		},
	}
	err := svc.validateInput(context.Background(), &input)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "Empty chapter") {
		t.Fatalf("error must name the offending chapter, got %q", err)
	}

	// An untitled empty chapter is named by position.
	input = BookInput{
		Title:    "Book",
		Chapters: []ChapterInput{{}},
	}
	err = svc.validateInput(context.Background(), &input)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "chapter 1") {
		t.Fatalf("error must name the chapter position, got %q", err)
	}
}

func TestBookValidateChecksPackagesViaIndex(t *testing.T) {
	svc := validatingBookService(t, map[string]pypi.CheckResult{
		"pandas": pypi.ResultValid,
		"nope":   pypi.ResultInvalid,
	})
	input := BookInput{
		Title: "Book",
		Chapters: []ChapterInput{{
			Title:    "One",
			Packages: []string{"pandas", "nope"},
			Sections: []SectionInput{{Type: "python", Title: "Frames"}},
		}},
	}
	err := svc.validateInput(context.Background(), &input)
	var vErr *content.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Value != "nope" {
		t.Fatalf("value: got=%q", vErr.Value)
	}
}

func TestBookValidateBlocksOnInconclusivePackage(t *testing.T) {
	svc := validatingBookService(t, map[string]pypi.CheckResult{})
	input := BookInput{
		Title: "Book",
		Chapters: []ChapterInput{{
			Title:    "One",
			Packages: []string{"pandas"},
			Sections: []SectionInput{{Type: "python", Title: "Frames"}},
		}},
	}
	err := svc.validateInput(context.Background(), &input)
	if !errors.Is(err, ErrPackageCheckFailed) {
		t.Fatalf("expected ErrPackageCheckFailed, got %v", err)
	}
}

func TestBookValidateDependencyCycle(t *testing.T) {
	svc := validatingBookService(t, nil)
	input := BookInput{
		Title: "Book",
		Chapters: []ChapterInput{{
			Title: "One",
			Sections: []SectionInput{
				{Type: "python", Title: "A", DependsOn: []string{"new-1"}},
				{Type: "python", Title: "B", DependsOn: []string{"new-0"}},
			},
		}},
	}
	if err := svc.validateInput(context.Background(), &input); err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestCheckPermutation(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	existing := []*types.Chapter{{ID: a}, {ID: b}, {ID: c}}

	if err := checkPermutation(existing, []uuid.UUID{c, a, b}); err != nil {
		t.Fatalf("valid permutation rejected: %v", err)
	}
	if err := checkPermutation(existing, []uuid.UUID{a, b}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("short list: got %v", err)
	}
	if err := checkPermutation(existing, []uuid.UUID{a, a, b}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("duplicate: got %v", err)
	}
	if err := checkPermutation(existing, []uuid.UUID{a, b, uuid.New()}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("foreign id: got %v", err)
	}
}

func TestSectionDepKey(t *testing.T) {
	id := uuid.New()
	if got := sectionDepKey(&SectionInput{ID: &id}, 3); got != id.String() {
		t.Fatalf("existing section key: got=%q", got)
	}
	if got := sectionDepKey(&SectionInput{}, 3); got != "new-3" {
		t.Fatalf("new section key: got=%q", got)
	}
}
