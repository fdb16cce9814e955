package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resolveiq/internal/embedding"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantState int
	}{
		{"no rows", fmt.Errorf("get ticket: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"embedding down", embedding.Unavailable(errors.New("timeout")), "DEPENDENCY_UNAVAILABLE", http.StatusServiceUnavailable},
		{"passthrough", NewConflict("dup", nil), "CONFLICT", http.StatusConflict},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.wantCode || got.HTTPStatus != tt.wantState {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tt.wantCode, tt.wantState)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(embedding.Unavailable(errors.New("x"))) {
		t.Error("embedding failure should be retryable")
	}
	if !IsRetryable(NewDependencyUnavailable("redis", nil)) {
		t.Error("dependency error should be retryable")
	}
	if IsRetryable(NewNotFound("ticket", nil)) || IsRetryable(nil) {
		t.Error("not found and nil are not retryable")
	}
}
