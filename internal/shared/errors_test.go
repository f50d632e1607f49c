package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	verr := NewValidationError("description", "is required")
	wrapped := fmt.Errorf("create line: %w", verr)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Contains(t, verr.Error(), "description: is required")

	var target *ValidationError
	require.True(t, errors.As(wrapped, &target))
	assert.Len(t, target.Fields, 1)
}

func TestValidationErrorOrNil(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())
	verr.Add("amount", "must not be negative")
	assert.Error(t, verr.OrNil())
}

func TestInvalidTransitionError(t *testing.T) {
	err := error(&InvalidTransitionError{Entity: "query", From: "NEW", To: "COMPLETED"})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, "invalid status transition: cannot move query from NEW to COMPLETED", err.Error())
}

func TestUniqueViolationDetection(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

type requiredPayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"full_name" validate:"required,max=5"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(requiredPayload{Email: "nope", Name: "too long name"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at most 5 characters", fields["full_name"])
}

func TestFormatDocumentNumber(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "QRY-20250307-001", FormatDocumentNumber(ScopeQuery, day, 1))
	assert.Equal(t, "INV-20250307-1200", FormatDocumentNumber(ScopeInvoice, day, 1200))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 41, TotalPages: 3}, p)
	assert.Equal(t, 40, PageRequest{Page: 3, Limit: 20}.Offset())
}
