package contracts

import (
	"testing"
)

func TestCompany_DebtToEquity(t *testing.T) {
	tests := []struct {
		name    string
		company Company
		want    *float64
	}{
		{
			name:    "positive equity",
			company: Company{Assets: 8_000_000, Liabilities: 3_000_000},
			want:    ptr(0.6),
		},
		{
			name:    "zero equity",
			company: Company{Assets: 1_000_000, Liabilities: 1_000_000},
			want:    nil,
		},
		{
			name:    "negative equity",
			company: Company{Assets: 500_000, Liabilities: 1_000_000},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.company.DebtToEquity()
			if tt.want == nil {
				if got != nil {
					t.Errorf("DebtToEquity() = %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("DebtToEquity() = %v, want %v", got, *tt.want)
			}
		})
	}
}

func TestEnumValidity(t *testing.T) {
	if !RiskLevelCritical.Valid() || RiskLevel("extreme").Valid() {
		t.Error("RiskLevel.Valid() mismatch")
	}
	if !HealthAverage.Valid() || FinancialHealth("fine").Valid() {
		t.Error("FinancialHealth.Valid() mismatch")
	}
	if !StatusMonitoring.Valid() || CompanyStatus("deleted").Valid() {
		t.Error("CompanyStatus.Valid() mismatch")
	}
	if !AlertMacroEconomic.Valid() || AlertType("fraud").Valid() {
		t.Error("AlertType.Valid() mismatch")
	}
	if !SeverityLow.Valid() || Severity("urgent").Valid() {
		t.Error("Severity.Valid() mismatch")
	}
	if !AnalysisStressTest.Valid() || AnalysisType("var").Valid() {
		t.Error("AnalysisType.Valid() mismatch")
	}
}

func ptr(v float64) *float64 { return &v }
