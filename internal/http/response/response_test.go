package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pybook/pybook-backend/internal/content"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondFromError(c, err)

	var envelope ErrorEnvelope
	if uErr := json.Unmarshal(rec.Body.Bytes(), &envelope); uErr != nil {
		t.Fatalf("decode envelope: %v", uErr)
	}
	return rec, envelope
}

func TestRespondFromErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("bad: %w", apperrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_request"},
		{&content.ValidationError{Field: "execution_mode", Value: "TURBO"}, http.StatusBadRequest, "invalid_request"},
		{fmt.Errorf("nope: %w", apperrors.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("nope: %w", apperrors.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("gone: %w", apperrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("stale: %w", apperrors.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("index down: %w", apperrors.ErrUnavailable), http.StatusServiceUnavailable, "retry_later"},
	}
	for _, tc := range cases {
		rec, envelope := respond(t, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.status, rec.Code)
		}
		if envelope.Error.Code != tc.code {
			t.Fatalf("%v: code want=%q got=%q", tc.err, tc.code, envelope.Error.Code)
		}
	}
}

func TestRespondFromErrorHidesInternals(t *testing.T) {
	rec, envelope := respond(t, fmt.Errorf("pq: relation users does not exist"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d", rec.Code)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
