package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hnky/agentcon-weather-mcp/internal/validation"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{name: "nil", err: nil, want: ""},
		{name: "invalid input", err: &validation.InvalidInputError{Reason: "Latitude must be between -90 and 90, got 91.0"}, want: ErrorCategoryInvalidInput},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: ErrorCategoryTimeout},
		{name: "canceled", err: context.Canceled, want: ErrorCategoryTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("request timeout: %w", context.DeadlineExceeded), want: ErrorCategoryTimeout},
		{name: "api error envelope", err: fmt.Errorf("%w: invalid coordinates", ErrAPIError), want: ErrorCategoryAPIError},
		{name: "status error", err: &StatusError{StatusCode: 503}, want: ErrorCategoryUpstream},
		{name: "wrapped status error", err: fmt.Errorf("fetch: %w", &StatusError{StatusCode: 500}), want: ErrorCategoryUpstream},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: ErrorCategoryNetwork},
		{name: "parse failure", err: errors.New("parse response: unexpected end of JSON input"), want: ErrorCategoryParsing},
		{name: "unknown", err: errors.New("something odd"), want: ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusError_MatchesSentinel(t *testing.T) {
	err := &StatusError{StatusCode: 404}
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Error("StatusError should match ErrUpstreamFailure")
	}
}
