package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/finrisk/internal/companies"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// UnknownSector is used when the return does not state the sector
const UnknownSector = "Bilinmeyen"

// =============================================================================
// Mapping
// =============================================================================

// CompanyDraft maps a statement to a new company
// Liabilities are total pasif minus equity; the credit limit is left to the recommendation.
func CompanyDraft(s *Statement, name, sector string) companies.CreateInput {
	taxID := strings.TrimSpace(s.CompanyInfo.TaxID)
	if name == "" {
		name = "Firma - " + taxID
	}
	if sector == "" {
		sector = UnknownSector
	}

	pasif := s.Tables.Liabilities
	return companies.CreateInput{
		Name:        name,
		TaxID:       taxID,
		Sector:      sector,
		Revenue:     s.Tables.IncomeReport.Get(LabelNetSales),
		Assets:      s.Tables.Assets.Get(LabelTotalAssets),
		Liabilities: pasif.Get(LabelTotalLiabilitiesAndEquity) - pasif.Get(LabelEquity),
	}
}

// Metrics maps a statement to a financial metric snapshot for period
// Ratios with a non-positive denominator are 0.
func Metrics(s *Statement, period string) companies.MetricInput {
	aktif := s.Tables.Assets
	pasif := s.Tables.Liabilities
	income := s.Tables.IncomeReport

	totalAssets := aktif.Get(LabelTotalAssets)
	currentAssets := aktif.Get(LabelCurrentAssets)
	inventories := aktif.Get(LabelInventories)

	equity := pasif.Get(LabelEquity)
	shortTerm := pasif.Get(LabelShortTermLiabilities)
	totalLiabilities := pasif.Get(LabelTotalLiabilitiesAndEquity) - equity
	if totalLiabilities <= 0 {
		totalLiabilities = shortTerm + pasif.Get(LabelLongTermLiabilities)
	}

	netProfit := income.Get(LabelNetProfit)
	operatingProfit := income.Get(LabelOperatingProfit)

	return companies.MetricInput{
		Period:             period,
		Revenue:            income.Get(LabelNetSales),
		NetIncome:          netProfit,
		GrossProfit:        income.Get(LabelGrossProfit),
		OperatingIncome:    operatingProfit,
		TotalAssets:        totalAssets,
		CurrentAssets:      currentAssets,
		TotalLiabilities:   totalLiabilities,
		CurrentLiabilities: shortTerm,
		Equity:             equity,
		DebtToEquity:       ratio(totalLiabilities, equity),
		CurrentRatio:       ratio(currentAssets, shortTerm),
		QuickRatio:         ratio(currentAssets-inventories, shortTerm),
		ROA:                ratio(netProfit, totalAssets),
		ROE:                ratio(netProfit, equity),
	}
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// DefaultPeriod labels snapshots of returns with no period, e.g. "2025"
func DefaultPeriod(now time.Time) string {
	return fmt.Sprintf("%d", now.Year())
}

// =============================================================================
// Import
// =============================================================================

// CompanyWriter is the part of the company service used by imports
type CompanyWriter interface {
	CreateWithMetrics(
		ctx context.Context,
		in companies.CreateInput,
		metric companies.MetricInput,
		createdBy *int64,
	) (*contracts.Company, *companies.RecalculateResult, error)
}

// ImportRequest is a statement plus the fields the extractor cannot read
type ImportRequest struct {
	Statement
	Name   string `json:"name,omitempty"`
	Sector string `json:"sector,omitempty"`
	Period string `json:"period,omitempty"`
}

// ImportResult is returned after a successful import
type ImportResult struct {
	Success bool                         `json:"success"`
	Company *contracts.Company           `json:"company"`
	Report  Report                       `json:"validation"`
	Risk    *companies.RecalculateResult `json:"risk"`
	Message string                       `json:"message"`
}

// Importer creates companies from extracted statements
type Importer struct {
	checker   *Checker
	companies CompanyWriter
	log       *logger.Logger
	now       func() time.Time
}

// NewImporter creates an importer
func NewImporter(companies CompanyWriter, log *logger.Logger) *Importer {
	return &Importer{
		checker:   NewChecker(),
		companies: companies,
		log:       log,
		now:       time.Now,
	}
}

// Check validates a statement without writing anything
func (i *Importer) Check(s *Statement) Report {
	return i.checker.Check(s)
}

// Import validates the statement, then creates the company scored from its snapshot
// A statement with errors is rejected with contracts.ErrValidation.
func (i *Importer) Import(ctx context.Context, req *ImportRequest, createdBy *int64) (*ImportResult, error) {
	report := i.checker.Check(&req.Statement)
	if !report.IsValid {
		return nil, fmt.Errorf("%w: %s", contracts.ErrValidation, strings.Join(report.Errors, "; "))
	}

	period := req.Period
	if period == "" {
		period = DefaultPeriod(i.now())
	}

	company, risk, err := i.companies.CreateWithMetrics(ctx,
		CompanyDraft(&req.Statement, req.Name, req.Sector),
		Metrics(&req.Statement, period),
		createdBy,
	)
	if err != nil {
		return nil, err
	}

	i.log.WithFields(map[string]interface{}{
		"company_id": company.ID,
		"tax_id":     company.TaxID,
		"period":     period,
	}).Info("company imported from statement")

	return &ImportResult{
		Success: true,
		Company: company,
		Report:  report,
		Risk:    risk,
		Message: "Firma PDF verilerinden başarıyla oluşturuldu",
	}, nil
}
