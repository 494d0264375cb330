// Package report renders the one-page company risk report as PDF.
package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/pkg/logger"
)

// maxAlerts is the number of open alerts listed on the page
const maxAlerts = 10

// maxReportAlerts bounds the open alerts loaded for the header count
const maxReportAlerts = 1000

// Data is everything printed on a report
type Data struct {
	Company     *contracts.CompanyWithMetrics
	Factors     contracts.RiskFactors
	OpenAlerts  []*contracts.AlertWithCompany
	GeneratedAt time.Time
}

// CompanyReader loads the company detail view
type CompanyReader interface {
	Get(ctx context.Context, id int64) (*contracts.CompanyWithMetrics, error)
}

// AlertLister lists alerts
type AlertLister interface {
	List(ctx context.Context, filter contracts.AlertFilter) ([]*contracts.AlertWithCompany, error)
}

// Service builds reports for stored companies
type Service struct {
	companies CompanyReader
	alerts    AlertLister
	engine    *scoring.Engine
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a report service
func NewService(companies CompanyReader, alerts AlertLister, engine *scoring.Engine, log *logger.Logger) *Service {
	return &Service{
		companies: companies,
		alerts:    alerts,
		engine:    engine,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CompanyReport loads a company and renders its report
func (s *Service) CompanyReport(ctx context.Context, companyID int64) ([]byte, error) {
	c, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	open, err := s.alerts.List(ctx, contracts.AlertFilter{
		CompanyID:  companyID,
		Unresolved: true,
		Limit:      maxReportAlerts,
	})
	if err != nil {
		return nil, fmt.Errorf("list open alerts: %w", err)
	}

	pdf, err := Render(Data{
		Company:     c,
		Factors:     s.engine.RiskFactors(&c.Company, c.LatestFinancialMetrics),
		OpenAlerts:  open,
		GeneratedAt: s.now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("company_id", companyID).Error("failed to render risk report")
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{"company_id": companyID, "bytes": len(pdf)}).Debug("risk report generated")
	return pdf, nil
}

// =============================================================================
// Rendering
// =============================================================================

// Render draws the report on a single A4 page
func Render(d Data) ([]byte, error) {
	if d.Company == nil {
		return nil, fmt.Errorf("render report: missing company")
	}
	c := d.Company

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle("Risk Raporu - "+c.Name, true)
	pdf.AddPage()

	// Core fonts are cp1252; Turkish letters need cp1254
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Kredi Risk Raporu"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr("Oluşturulma: "+d.GeneratedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, tr, "Firma")
	row(pdf, tr, "Unvan", c.Name)
	row(pdf, tr, "VKN", c.TaxID)
	row(pdf, tr, "Sektör", c.Sector)
	row(pdf, tr, "Durum", string(c.Status))
	row(pdf, tr, "Ciro", money(c.Revenue))
	row(pdf, tr, "Aktifler", money(c.Assets))
	row(pdf, tr, "Yükümlülükler", money(c.Liabilities))
	row(pdf, tr, "Özkaynak", money(c.Equity))
	if c.DebtToEquityRatio != nil {
		row(pdf, tr, "Borç / Özkaynak", fmt.Sprintf("%.2f", *c.DebtToEquityRatio))
	}
	pdf.Ln(3)

	section(pdf, tr, "Risk Skorları")
	row(pdf, tr, "Kredi skoru", fmt.Sprintf("%d / %d", c.RiskScore, scoring.MaxCreditScore))
	row(pdf, tr, "Risk seviyesi", string(c.RiskLevel))
	row(pdf, tr, "Temerrüt olasılığı (PD)", fmt.Sprintf("%%%.2f", c.PDScore))
	row(pdf, tr, "Finansal sağlık", string(c.FinancialHealth))
	row(pdf, tr, "Kredi limiti", money(c.CreditLimit))
	if c.LastAnalysis != nil {
		row(pdf, tr, "Son analiz", c.LastAnalysis.Format("2006-01-02 15:04"))
	}
	pdf.Ln(3)

	section(pdf, tr, "Risk Faktörleri")
	factorTable(pdf, tr, d.Factors)
	pdf.Ln(3)

	section(pdf, tr, fmt.Sprintf("Açık Uyarılar (%d)", len(d.OpenAlerts)))
	alertList(pdf, tr, d.OpenAlerts)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

type translator func(string) string

func section(pdf *fpdf.Fpdf, tr translator, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", true, 0, "")
	pdf.Ln(1)
}

func row(pdf *fpdf.Fpdf, tr translator, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func factorTable(pdf *fpdf.Fpdf, tr translator, factors contracts.RiskFactors) {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	pdf.SetFont("Arial", "B", 9)
	for _, h := range []struct {
		title string
		width float64
	}{{"Faktör", 60}, {"Skor", 40}, {"Ağırlık", 40}, {"Durum", 40}} {
		pdf.CellFormat(h.width, 6, tr(h.title), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, name := range names {
		f := factors[name]
		pdf.CellFormat(60, 6, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", f.Score), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.0f%%", f.Weight*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(string(f.Status)), "1", 1, "C", false, 0, "")
	}
}

func alertList(pdf *fpdf.Fpdf, tr translator, alerts []*contracts.AlertWithCompany) {
	pdf.SetFont("Arial", "", 9)
	if len(alerts) == 0 {
		pdf.CellFormat(0, 6, tr("Açık uyarı yok."), "", 1, "L", false, 0, "")
		return
	}

	shown := alerts
	if len(shown) > maxAlerts {
		shown = shown[:maxAlerts]
	}
	for _, a := range shown {
		line := fmt.Sprintf("[%s] %s - %s", a.Severity, a.CreatedAt.Format("2006-01-02"), a.Title)
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	if rest := len(alerts) - len(shown); rest > 0 {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("... ve %d uyarı daha", rest)), "", 1, "L", false, 0, "")
	}
}

// money formats a TL amount with thousands separators
func money(v float64) string {
	return humanize.Comma(int64(math.Round(v))) + " TL"
}
