package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/alerts"
	"github.com/wonny/finrisk/internal/companies"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/storage/memory"
	"github.com/wonny/finrisk/pkg/logger"
)

const sampleJSON = `{
  "success": true,
  "companyInfo": {"taxId": "1234567890", "email": "info@ornek-firma.com", "tradeRegistryNo": "123456", "commercialProfit": 2500000},
  "tables": {
    "aktif": {
      "Dönen Varlıklar": 5000000, "Nakit ve Nakit Benzerleri": 1200000, "Ticari Alacaklar": 2300000,
      "Stoklar": 1500000, "Duran Varlıklar": 8000000, "Toplam Aktif": 13000000
    },
    "pasif": {
      "Kısa Vadeli Yükümlülükler": 3500000, "Uzun Vadeli Yükümlülükler": 2000000,
      "Özkaynaklar": 7500000, "Toplam Pasif": 13000000
    },
    "gelirTablosu": {
      "Brüt Satışlar": 15000000, "Net Satışlar": 14500000, "Brüt Kar": 4500000,
      "Faaliyet Karı": 1300000, "Finansman Giderleri": 200000, "Net Dönem Karı": 880000
    }
  }
}`

func sample(t *testing.T) *Statement {
	t.Helper()
	var s Statement
	require.NoError(t, json.Unmarshal([]byte(sampleJSON), &s))
	return &s
}

func TestChecker_SampleIsValid(t *testing.T) {
	r := NewChecker().Check(sample(t))

	assert.True(t, r.IsValid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, []string{
		"Toplam aktif: 13,000,000 TL - Firma büyüklüğü küçük ölçekli görünüyor",
		"Net kar marjı: %6.07 - İyi karlılık",
	}, r.Suggestions)
}

func TestChecker_Rules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *Statement)
		valid    bool
		errors   []string
		warnings []string
	}{
		{
			name:   "missing tax id",
			mutate: func(s *Statement) { s.CompanyInfo.TaxID = "" },
			errors: []string{"Geçerli bir VKN bulunamadı"},
		},
		{
			name:   "non numeric tax id",
			mutate: func(s *Statement) { s.CompanyInfo.TaxID = "12345abcde" },
			errors: []string{"Geçerli bir VKN bulunamadı"},
		},
		{
			name:     "malformed email with a valid tax id",
			mutate:   func(s *Statement) { s.CompanyInfo.Email = "not-an-email" },
			valid:    true,
			warnings: []string{"E-posta adresi geçersiz görünüyor: not-an-email"},
		},
		{
			name:   "tax id with surrounding spaces",
			mutate: func(s *Statement) { s.CompanyInfo.TaxID = " 1234567890 " },
			valid:  true,
		},
		{
			name:     "balance mismatch over 1%",
			mutate:   func(s *Statement) { s.Tables.Liabilities[LabelTotalLiabilitiesAndEquity] = 12_800_000 },
			valid:    true,
			warnings: []string{"Bilanço dengesi uyumsuz: Aktif 13,000,000 TL, Pasif 12,800,000 TL"},
		},
		{
			name:   "balance mismatch within 1%",
			mutate: func(s *Statement) { s.Tables.Liabilities[LabelTotalLiabilitiesAndEquity] = 12_900_000 },
			valid:  true,
		},
		{
			name:   "net sales above gross sales",
			mutate: func(s *Statement) { s.Tables.IncomeReport[LabelNetSales] = 16_000_000 },
			errors: []string{"Net satışlar brüt satışlardan büyük olamaz"},
		},
		{
			name:     "net profit above operating profit",
			mutate:   func(s *Statement) { s.Tables.IncomeReport[LabelNetProfit] = 1_500_000 },
			valid:    true,
			warnings: []string{"Net kar faaliyet karından büyük görünüyor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sample(t)
			tt.mutate(s)
			r := NewChecker().Check(s)

			assert.Equal(t, tt.valid, r.IsValid)
			for _, e := range tt.errors {
				assert.Contains(t, r.Errors, e)
			}
			if tt.valid {
				assert.Empty(t, r.Errors)
			}
			assert.Len(t, r.Warnings, len(tt.warnings))
			for _, w := range tt.warnings {
				assert.Contains(t, r.Warnings, w)
			}
		})
	}
}

func TestChecker_LowMarginSuggestion(t *testing.T) {
	s := sample(t)
	s.Tables.IncomeReport[LabelNetProfit] = 290_000

	r := NewChecker().Check(s)
	assert.Contains(t, r.Suggestions, "Net kar marjı: %2.00 - Düşük karlılık")
}

func TestCompanyDraft(t *testing.T) {
	draft := CompanyDraft(sample(t), "", "")

	assert.Equal(t, "Firma - 1234567890", draft.Name)
	assert.Equal(t, "1234567890", draft.TaxID)
	assert.Equal(t, UnknownSector, draft.Sector)
	assert.Equal(t, 14_500_000.0, draft.Revenue)
	assert.Equal(t, 13_000_000.0, draft.Assets)
	assert.Equal(t, 5_500_000.0, draft.Liabilities, "total pasif minus equity")
	assert.Zero(t, draft.CreditLimit)

	named := CompanyDraft(sample(t), "Örnek Gıda A.Ş.", "Gıda")
	assert.Equal(t, "Örnek Gıda A.Ş.", named.Name)
	assert.Equal(t, "Gıda", named.Sector)
}

func TestMetrics(t *testing.T) {
	m := Metrics(sample(t), "2024")

	assert.Equal(t, "2024", m.Period)
	assert.Equal(t, 14_500_000.0, m.Revenue)
	assert.Equal(t, 880_000.0, m.NetIncome)
	assert.Equal(t, 1_300_000.0, m.OperatingIncome)
	assert.Equal(t, 5_500_000.0, m.TotalLiabilities)
	assert.InDelta(t, 5.0/3.5, m.CurrentRatio, 1e-9)
	assert.InDelta(t, 1.0, m.QuickRatio, 1e-9)
	assert.InDelta(t, 5.5/7.5, m.DebtToEquity, 1e-9)
	assert.InDelta(t, 880_000.0/13_000_000, m.ROA, 1e-9)
	assert.InDelta(t, 880_000.0/7_500_000, m.ROE, 1e-9)
}

func TestMetrics_SafeDivision(t *testing.T) {
	s := &Statement{Tables: Tables{
		Assets:       LineItems{},
		Liabilities:  LineItems{LabelShortTermLiabilities: 100, LabelLongTermLiabilities: 50},
		IncomeReport: LineItems{LabelNetProfit: -10},
	}}

	m := Metrics(s, "2024")
	assert.Equal(t, 150.0, m.TotalLiabilities, "falls back to short + long term")
	assert.Zero(t, m.DebtToEquity)
	assert.Zero(t, m.ROA)
	assert.Zero(t, m.ROE)
	assert.Zero(t, m.CurrentRatio)
}

func newImporter(t *testing.T) (*Importer, *memory.DB) {
	t.Helper()
	db := memory.New()
	alertSvc := alerts.NewService(db.Alerts(), logger.Nop())
	companySvc := companies.NewService(db.Companies(), db.Metrics(), scoring.NewEngine(), alertSvc, logger.Nop())
	return NewImporter(companySvc, logger.Nop()), db
}

func TestImporter_Import(t *testing.T) {
	imp, db := newImporter(t)
	ctx := context.Background()
	user := int64(5)

	res, err := imp.Import(ctx, &ImportRequest{Statement: *sample(t), Sector: "Gıda", Period: "2024"}, &user)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "1234567890", res.Company.TaxID)
	assert.Equal(t, "Gıda", res.Company.Sector)
	assert.Equal(t, res.Risk.RiskScore, res.Company.RiskScore)
	assert.Positive(t, res.Company.CreditLimit)

	stored, err := db.Companies().GetByID(ctx, res.Company.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAnalysis, "import scores from the statement snapshot")
	assert.Equal(t, res.Risk.PDScore, stored.PDScore)

	m, err := db.Metrics().LatestByCompany(ctx, res.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024", m.Period)
	assert.InDelta(t, 5.0/3.5, m.CurrentRatio, 1e-9)
}

func TestImporter_Import_EvaluatesAlertsOnce(t *testing.T) {
	imp, db := newImporter(t)
	ctx := context.Background()

	res, err := imp.Import(ctx, &ImportRequest{Statement: *sample(t), Sector: "Gıda"}, nil)
	require.NoError(t, err)
	require.Greater(t, res.Company.Liabilities, res.Company.CreditLimit*0.8)

	list, err := db.Alerts().List(ctx, contracts.AlertFilter{CompanyID: res.Company.ID})
	require.NoError(t, err)

	byType := map[contracts.AlertType]int{}
	for _, a := range list {
		byType[a.AlertType]++
	}
	assert.Equal(t, 1, byType[contracts.AlertCreditLimit])
	for typ, n := range byType {
		assert.Equal(t, 1, n, "alert type %s", typ)
	}
	assert.Len(t, list, res.Risk.AlertsGenerated)
}

func TestImporter_RejectsInvalidStatement(t *testing.T) {
	imp, db := newImporter(t)
	s := sample(t)
	s.CompanyInfo.TaxID = "123"

	_, err := imp.Import(context.Background(), &ImportRequest{Statement: *s}, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	list, err := db.Companies().List(context.Background(), contracts.CompanyFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestImporter_AcceptsMalformedEmail(t *testing.T) {
	imp, _ := newImporter(t)
	s := sample(t)
	s.CompanyInfo.Email = "not-an-email"

	res, err := imp.Import(context.Background(), &ImportRequest{Statement: *s}, nil)
	require.NoError(t, err)
	assert.True(t, res.Report.IsValid)
	assert.Equal(t, []string{"E-posta adresi geçersiz görünüyor: not-an-email"}, res.Report.Warnings)
}

func TestImporter_DuplicateTaxID(t *testing.T) {
	imp, _ := newImporter(t)
	ctx := context.Background()

	_, err := imp.Import(ctx, &ImportRequest{Statement: *sample(t)}, nil)
	require.NoError(t, err)

	_, err = imp.Import(ctx, &ImportRequest{Statement: *sample(t)}, nil)
	assert.ErrorIs(t, err, contracts.ErrDuplicateTaxID)
}
