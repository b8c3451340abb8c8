package validator

import (
	"testing"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Value    decimal.Decimal `json:"value" validate:"gt=0"`
	PlanType string          `json:"plan_type" validate:"omitempty,plan_type"`
	State    string          `json:"state" validate:"state_code"`
}

func TestValidateRequest(t *testing.T) {
	NewValidator()

	tests := []struct {
		name    string
		req     sampleRequest
		wantErr bool
		field   string
	}{
		{
			name: "valid",
			req:  sampleRequest{Value: decimal.NewFromInt(100), PlanType: "annual", State: "SP"},
		},
		{
			name:    "non positive value",
			req:     sampleRequest{Value: decimal.Zero, PlanType: "monthly", State: "SP"},
			wantErr: true,
			field:   "value",
		},
		{
			name:    "unknown plan type",
			req:     sampleRequest{Value: decimal.NewFromInt(1), PlanType: "weekly", State: "SP"},
			wantErr: true,
			field:   "plan_type",
		},
		{
			name:    "bad state",
			req:     sampleRequest{Value: decimal.NewFromInt(1), State: "S1"},
			wantErr: true,
			field:   "state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
