package services

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

type fakeExecutionRepo struct {
	rows  []*types.CodeExecution
	stats []*repos.ExecutionStat
	count int64

	lastFilter repos.ExecutionFilter
}

func (f *fakeExecutionRepo) Create(ctx context.Context, tx *gorm.DB, executions []*types.CodeExecution) ([]*types.CodeExecution, error) {
	return executions, nil
}

func (f *fakeExecutionRepo) ListByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter repos.ExecutionFilter) ([]*types.CodeExecution, error) {
	f.lastFilter = filter
	return f.rows, nil
}

func (f *fakeExecutionRepo) CountByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter repos.ExecutionFilter) (int64, error) {
	return f.count, nil
}

func (f *fakeExecutionRepo) StatsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*repos.ExecutionStat, error) {
	return f.stats, nil
}

func (f *fakeExecutionRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	return nil
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestExecutionStatsSummary(t *testing.T) {
	userA, userB := uuid.New(), uuid.New()
	repo := &fakeExecutionRepo{
		stats: []*repos.ExecutionStat{
			{UserID: userA, TotalExecutions: 6, SuccessfulExecutions: 3},
			{UserID: userA, TotalExecutions: 2, SuccessfulExecutions: 2},
			{UserID: userB, TotalExecutions: 2, SuccessfulExecutions: 0},
		},
		count: 4,
	}
	svc := NewExecutionService(nil, testLog(t), repo, nil)

	_, summary, err := svc.Stats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if summary.TotalExecutions != 10 {
		t.Fatalf("total: want=10 got=%d", summary.TotalExecutions)
	}
	if summary.SuccessRate != 0.5 {
		t.Fatalf("success rate: want=0.5 got=%v", summary.SuccessRate)
	}
	if summary.ActiveUsers != 2 {
		t.Fatalf("active users: want=2 got=%d", summary.ActiveUsers)
	}
	if summary.TodayExecutions != 4 {
		t.Fatalf("today: want=4 got=%d", summary.TodayExecutions)
	}
}

func TestExecutionExportCSV(t *testing.T) {
	executed := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	repo := &fakeExecutionRepo{
		rows: []*types.CodeExecution{{
			SectionID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			ExecutionStatus: types.ExecutionSuccess,
			ExecutionMode:   "SHARED",
			ContextKey:      "ctx-1",
			SessionID:       "sess-1",
			ExecutedAt:      executed,
			User:            &types.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
			Chapter:         &types.Chapter{Title: "Loops"},
		}},
	}
	svc := NewExecutionService(nil, testLog(t), repo, nil)

	raw, contentType, err := svc.Export(context.Background(), uuid.New(), "csv", repos.ExecutionFilter{Limit: 25, Offset: 50})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "text/csv" {
		t.Fatalf("content type: want=text/csv got=%q", contentType)
	}
	if repo.lastFilter.Limit != 0 || repo.lastFilter.Offset != 0 {
		t.Fatalf("export must ignore pagination, got limit=%d offset=%d", repo.lastFilter.Limit, repo.lastFilter.Offset)
	}

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("csv rows: want=2 got=%d", len(records))
	}
	if records[0][0] != "executed_at" || records[0][1] != "user_email" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[1] != "ada@example.com" || row[2] != "Ada Lovelace" || row[3] != "Loops" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[0] != executed.Format(time.RFC3339) {
		t.Fatalf("executed_at: got=%q", row[0])
	}
}

func TestExecutionExportEmptyIsNotFound(t *testing.T) {
	svc := NewExecutionService(nil, testLog(t), &fakeExecutionRepo{}, nil)
	_, _, err := svc.Export(context.Background(), uuid.New(), "csv", repos.ExecutionFilter{})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecutionExportUnknownFormat(t *testing.T) {
	repo := &fakeExecutionRepo{rows: []*types.CodeExecution{{ExecutedAt: time.Now()}}}
	svc := NewExecutionService(nil, testLog(t), repo, nil)
	_, _, err := svc.Export(context.Background(), uuid.New(), "xml", repos.ExecutionFilter{})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExecutionRecordRejectsBadStatus(t *testing.T) {
	svc := NewExecutionService(nil, testLog(t), &fakeExecutionRepo{}, nil)
	_, err := svc.Record(context.Background(), uuid.New(), uuid.New(), ExecutionInput{ExecutionStatus: "finished"})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseExecutionFilter(t *testing.T) {
	chapterID := uuid.New()
	values := map[string]string{
		"chapter_id": chapterID.String(),
		"user_id":    "not-a-uuid",
		"status":     types.ExecutionError,
		"date_from":  "2026-01-02T00:00:00Z",
		"limit":      "5000",
		"offset":     "20",
	}
	filter := ParseExecutionFilter(func(k string) string { return values[k] })

	if filter.ChapterID == nil || *filter.ChapterID != chapterID {
		t.Fatalf("chapter id not parsed: %+v", filter.ChapterID)
	}
	if filter.UserID != nil {
		t.Fatalf("bad user id should be ignored")
	}
	if filter.Status != types.ExecutionError {
		t.Fatalf("status: got=%q", filter.Status)
	}
	if filter.DateFrom == nil || !filter.DateFrom.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date_from not parsed: %+v", filter.DateFrom)
	}
	if filter.Limit != 100 {
		t.Fatalf("out-of-range limit must keep default 100, got %d", filter.Limit)
	}
	if filter.Offset != 20 {
		t.Fatalf("offset: want=20 got=%d", filter.Offset)
	}
}
