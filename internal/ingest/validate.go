package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wonny/finrisk/internal/validation"
)

// Consistency thresholds
const (
	maxBalanceMismatch = 0.01 // aktif vs pasif, relative
	goodNetMargin      = 5.0  // %
	midSizeAssets      = 25_000_000
	largeSizeAssets    = 250_000_000
)

// Report is the outcome of a statement check
// Errors make the statement unusable; warnings and suggestions are advisory.
type Report struct {
	IsValid     bool     `json:"isValid"`
	Warnings    []string `json:"warnings"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
}

func (r *Report) fail(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}

const (
	taxIDRule = "required,len=10,numeric"
	emailRule = "omitempty,email"
)

// Checker validates extracted statements
type Checker struct {
	validator *validation.Validator
}

// NewChecker creates a statement checker
func NewChecker() *Checker {
	return &Checker{validator: validation.New()}
}

// Check runs the identity, balance and income statement consistency checks
func (c *Checker) Check(s *Statement) Report {
	r := Report{
		IsValid:     true,
		Warnings:    []string{},
		Errors:      []string{},
		Suggestions: []string{},
	}

	// Only the VKN decides validity; a bad e-mail is reported but does not block imports
	if err := c.validator.Var(strings.TrimSpace(s.CompanyInfo.TaxID), taxIDRule); err != nil {
		r.fail("Geçerli bir VKN bulunamadı")
	}
	if err := c.validator.Var(s.CompanyInfo.Email, emailRule); err != nil {
		r.Warnings = append(r.Warnings, "E-posta adresi geçersiz görünüyor: "+s.CompanyInfo.Email)
	}

	// Balance sheet
	totalAssets := s.Tables.Assets.Get(LabelTotalAssets)
	totalPasif := s.Tables.Liabilities.Get(LabelTotalLiabilitiesAndEquity)
	if totalAssets > 0 && totalPasif > 0 {
		diff := math.Abs(totalAssets-totalPasif) / math.Max(totalAssets, totalPasif)
		if diff > maxBalanceMismatch {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Bilanço dengesi uyumsuz: Aktif %s TL, Pasif %s TL", tl(totalAssets), tl(totalPasif)))
		}
	}

	// Income statement
	income := s.Tables.IncomeReport
	netSales := income.Get(LabelNetSales)
	grossSales := income.Get(LabelGrossSales)
	if grossSales > 0 && netSales > grossSales {
		r.fail("Net satışlar brüt satışlardan büyük olamaz")
	}

	operatingProfit := income.Get(LabelOperatingProfit)
	netProfit := income.Get(LabelNetProfit)
	if operatingProfit > 0 && netProfit > operatingProfit {
		r.Warnings = append(r.Warnings, "Net kar faaliyet karından büyük görünüyor")
	}

	// Suggestions
	if totalAssets > 0 {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf(
			"Toplam aktif: %s TL - Firma büyüklüğü %s görünüyor", tl(totalAssets), sizeClass(totalAssets)))
	}
	if netSales > 0 && netProfit > 0 {
		margin := netProfit / netSales * 100
		quality := "Düşük"
		if margin > goodNetMargin {
			quality = "İyi"
		}
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("Net kar marjı: %%%.2f - %s karlılık", margin, quality))
	}

	return r
}

func sizeClass(totalAssets float64) string {
	switch {
	case totalAssets >= largeSizeAssets:
		return "büyük ölçekli"
	case totalAssets >= midSizeAssets:
		return "orta ölçekli"
	default:
		return "küçük ölçekli"
	}
}

// tl formats an amount with thousands separators, no decimals
func tl(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
