package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/h19overflow/PipeWeave/internal/domain"
)

func TestWrapErr(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  string
	}{
		{
			name:  "no rows maps to not found",
			err:   pgx.ErrNoRows,
			check: domain.IsNotFound,
			want:  "dataset not found",
		},
		{
			name:  "wrapped no rows maps to not found",
			err:   fmt.Errorf("scan: %w", pgx.ErrNoRows),
			check: domain.IsNotFound,
			want:  "dataset not found",
		},
		{
			name:  "unique violation maps to already exists",
			err:   &pgconn.PgError{Code: "23505", ConstraintName: "datasets_user_id_name_key"},
			check: domain.IsAlreadyExists,
			want:  "dataset already exists",
		},
		{
			name:  "other pg error maps to internal",
			err:   &pgconn.PgError{Code: "40001"},
			check: domain.IsInternalError,
			want:  "an internal error occurred",
		},
		{
			name:  "plain error maps to internal",
			err:   errors.New("connection refused"),
			check: domain.IsInternalError,
			want:  "an internal error occurred",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapErr("dataset", tt.err)
			if !tt.check(got) {
				t.Fatalf("wrapErr(%v) = %v, classification mismatch", tt.err, got)
			}
			var de *domain.DomainError
			if !errors.As(got, &de) {
				t.Fatalf("wrapErr(%v) = %T, want *domain.DomainError", tt.err, got)
			}
			if de.UserMessage() != tt.want {
				t.Errorf("UserMessage() = %q, want %q", de.UserMessage(), tt.want)
			}
			if de.Unwrap() == nil {
				t.Errorf("wrapErr(%v) lost the underlying cause", tt.err)
			}
		})
	}

	if wrapErr("dataset", nil) != nil {
		t.Error("wrapErr(nil) should be nil")
	}
}
