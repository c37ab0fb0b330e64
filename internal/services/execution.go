package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

type ExecutionInput struct {
	ChapterID       uuid.UUID `json:"chapter_id"`
	SectionID       uuid.UUID `json:"section_id"`
	CodeContent     string    `json:"code_content"`
	ExecutionResult string    `json:"execution_result,omitempty"`
	ExecutionStatus string    `json:"execution_status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
}

// ExecutionSummary is the org-wide roll-up shown on the telemetry dashboard.
type ExecutionSummary struct {
	TotalExecutions int64   `json:"totalExecutions"`
	TodayExecutions int64   `json:"todayExecutions"`
	SuccessRate     float64 `json:"successRate"`
	ActiveUsers     int64   `json:"activeUsers"`
}

type ExecutionService interface {
	// Record persists one telemetry row. Mode and interpreter key are derived
	// server-side from the stored content, never trusted from the client.
	Record(ctx context.Context, orgID, userID uuid.UUID, input ExecutionInput) (*types.CodeExecution, error)
	Stats(ctx context.Context, orgID uuid.UUID) ([]*repos.ExecutionStat, ExecutionSummary, error)
	List(ctx context.Context, orgID uuid.UUID, filter repos.ExecutionFilter) ([]*types.CodeExecution, int64, error)
	// Export renders the org's telemetry as csv or json bytes.
	Export(ctx context.Context, orgID uuid.UUID, format string, filter repos.ExecutionFilter) ([]byte, string, error)
}

type executionService struct {
	db            *gorm.DB
	log           *logger.Logger
	executionRepo repos.CodeExecutionRepo
	chapterSvc    ChapterService
}

func NewExecutionService(
	db *gorm.DB,
	log *logger.Logger,
	executionRepo repos.CodeExecutionRepo,
	chapterSvc ChapterService,
) ExecutionService {
	return &executionService{
		db:            db,
		log:           log.With("service", "ExecutionService"),
		executionRepo: executionRepo,
		chapterSvc:    chapterSvc,
	}
}

func (es *executionService) Record(ctx context.Context, orgID, userID uuid.UUID, input ExecutionInput) (*types.CodeExecution, error) {
	if !types.ValidExecutionStatus(input.ExecutionStatus) {
		return nil, fmt.Errorf("invalid execution status %q: %w", input.ExecutionStatus, apperrors.ErrInvalidArgument)
	}
	resolution, err := es.chapterSvc.ResolveSection(ctx, orgID, input.ChapterID, input.SectionID)
	if err != nil {
		return nil, err
	}

	execution := &types.CodeExecution{
		UserID:          userID,
		OrganizationID:  orgID,
		ChapterID:       input.ChapterID,
		SectionID:       input.SectionID,
		CodeContent:     input.CodeContent,
		ExecutionResult: input.ExecutionResult,
		ExecutionStatus: input.ExecutionStatus,
		ErrorMessage:    input.ErrorMessage,
		ExecutionMode:   string(resolution.EffectiveMode),
		ContextKey:      resolution.InterpreterKey,
		SessionID:       input.SessionID,
		ExecutedAt:      time.Now(),
	}
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, cErr := es.executionRepo.Create(ctx, tx, []*types.CodeExecution{execution})
		if cErr != nil {
			return fmt.Errorf("record execution: %w", cErr)
		}
		execution = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return execution, nil
}

func (es *executionService) Stats(ctx context.Context, orgID uuid.UUID) ([]*repos.ExecutionStat, ExecutionSummary, error) {
	stats, err := es.executionRepo.StatsByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, ExecutionSummary{}, fmt.Errorf("aggregate executions: %w", err)
	}

	summary := ExecutionSummary{}
	var successful int64
	users := make(map[uuid.UUID]bool)
	for _, s := range stats {
		summary.TotalExecutions += s.TotalExecutions
		successful += s.SuccessfulExecutions
		users[s.UserID] = true
	}
	summary.ActiveUsers = int64(len(users))
	if summary.TotalExecutions > 0 {
		summary.SuccessRate = float64(successful) / float64(summary.TotalExecutions)
	}

	startOfDay := time.Now().Truncate(24 * time.Hour)
	today, err := es.executionRepo.CountByOrgID(ctx, nil, orgID, repos.ExecutionFilter{DateFrom: &startOfDay})
	if err != nil {
		return nil, ExecutionSummary{}, fmt.Errorf("count today executions: %w", err)
	}
	summary.TodayExecutions = today
	return stats, summary, nil
}

func (es *executionService) List(ctx context.Context, orgID uuid.UUID, filter repos.ExecutionFilter) ([]*types.CodeExecution, int64, error) {
	rows, err := es.executionRepo.ListByOrgID(ctx, nil, orgID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}
	total, err := es.executionRepo.CountByOrgID(ctx, nil, orgID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count executions: %w", err)
	}
	return rows, total, nil
}

// Export returns the rendered bytes plus the content type. An org with no
// matching rows yields ErrNotFound so the surface can 404 instead of sending
// an empty file.
func (es *executionService) Export(ctx context.Context, orgID uuid.UUID, format string, filter repos.ExecutionFilter) ([]byte, string, error) {
	// Exports ignore pagination.
	filter.Limit = 0
	filter.Offset = 0
	rows, err := es.executionRepo.ListByOrgID(ctx, nil, orgID, filter)
	if err != nil {
		return nil, "", fmt.Errorf("load executions for export: %w", err)
	}
	if len(rows) == 0 {
		return nil, "", fmt.Errorf("no executions to export: %w", apperrors.ErrNotFound)
	}

	switch format {
	case "json":
		raw, mErr := json.MarshalIndent(rows, "", "  ")
		if mErr != nil {
			return nil, "", fmt.Errorf("marshal export: %w", mErr)
		}
		return raw, "application/json", nil
	case "", "csv":
		raw, cErr := renderExecutionsCSV(rows)
		if cErr != nil {
			return nil, "", cErr
		}
		return raw, "text/csv", nil
	}
	return nil, "", fmt.Errorf("unsupported export format %q: %w", format, apperrors.ErrInvalidArgument)
}

func renderExecutionsCSV(rows []*types.CodeExecution) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"executed_at", "user_email", "user_name", "chapter_title", "section_id",
		"execution_status", "execution_mode", "context_key", "session_id", "error_message",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		email, name := "", ""
		if r.User != nil {
			email = r.User.Email
			name = r.User.FirstName + " " + r.User.LastName
		}
		chapterTitle := ""
		if r.Chapter != nil {
			chapterTitle = r.Chapter.Title
		}
		record := []string{
			r.ExecutedAt.Format(time.RFC3339),
			email,
			name,
			chapterTitle,
			r.SectionID.String(),
			r.ExecutionStatus,
			r.ExecutionMode,
			r.ContextKey,
			r.SessionID,
			r.ErrorMessage,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseExecutionFilter builds a repo filter from raw query values. Bad
// values are ignored rather than rejected; the telemetry view is best-effort.
func ParseExecutionFilter(get func(string) string) repos.ExecutionFilter {
	filter := repos.ExecutionFilter{Limit: 100}
	if v := get("chapter_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ChapterID = &id
		}
	}
	if v := get("user_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.UserID = &id
		}
	}
	if v := get("section_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.SectionID = &id
		}
	}
	if v := get("status"); types.ValidExecutionStatus(v) {
		filter.Status = v
	}
	if v := get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateTo = &t
		}
	}
	if v := get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}
	if v := get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	return filter
}
