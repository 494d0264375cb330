package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/contracts"
)

type sample struct {
	TaxID   string  `json:"tax_id" validate:"required,len=10,numeric"`
	Revenue float64 `json:"revenue" validate:"gte=0"`
	Status  string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive monitoring"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		wantErr []string
	}{
		{name: "valid", in: sample{TaxID: "1234567890", Revenue: 10}},
		{name: "missing tax id", in: sample{}, wantErr: []string{"tax_id is required"}},
		{name: "short tax id", in: sample{TaxID: "123"}, wantErr: []string{"tax_id must be 10 characters"}},
		{name: "letters in tax id", in: sample{TaxID: "12345abcde"}, wantErr: []string{"tax_id must contain only digits"}},
		{
			name:    "several failures",
			in:      sample{TaxID: "1234567890", Revenue: -1, Status: "deleted"},
			wantErr: []string{"revenue must be >= 0", "status must be one of [active inactive monitoring]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrValidation)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
