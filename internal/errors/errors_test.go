package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewError("contract missing").Mark(ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"validation", NewError("bad input").Mark(ErrValidation), http.StatusBadRequest, ErrCodeValidation},
		{"conflict", NewError("locked").Mark(ErrConflict), http.StatusConflict, ErrCodeConflict},
		{"version conflict", NewError("stale write").Mark(ErrVersionConflict), http.StatusConflict, ErrCodeVersionConflict},
		{"unmarked", errors.New("boom"), http.StatusInternalServerError, ErrCodeSystemError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
		})
	}
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(NewError("x").Mark(ErrConflict)))
	assert.True(t, IsConflict(NewError("x").Mark(ErrVersionConflict)))
	assert.False(t, IsConflict(NewError("x").Mark(ErrValidation)))
}

func TestBuilderKeepsHintAndMark(t *testing.T) {
	domainErr := errors.New("already locked")
	err := WithError(domainErr).
		WithHint("Someone else is already acting on this contract").
		WithReportableDetails(map[string]any{"contract_id": "ctr_1"}).
		Mark(ErrConflict)

	assert.True(t, errors.Is(err, domainErr))
	assert.True(t, IsConflict(err))
	assert.Contains(t, errors.FlattenHints(err), "Someone else is already acting")
}
