package scoring

import "github.com/wonny/finrisk/internal/contracts"

// =============================================================================
// Banding tables
// ⭐ SSOT: score → level and PD → health thresholds live only here
// =============================================================================

// scoreBand maps a minimum credit score to a risk level
type scoreBand struct {
	MinScore int
	Level    contracts.RiskLevel
}

// riskLevelBands is ordered from the highest threshold down
var riskLevelBands = []scoreBand{
	{MinScore: 750, Level: contracts.RiskLevelLow},
	{MinScore: 600, Level: contracts.RiskLevelMedium},
	{MinScore: 400, Level: contracts.RiskLevelHigh},
}

// pdBand maps an exclusive PD ceiling (%) to a health band
type pdBand struct {
	Below  float64
	Health contracts.FinancialHealth
}

// healthBands is ordered from the lowest ceiling up
var healthBands = []pdBand{
	{Below: 2, Health: contracts.HealthExcellent},
	{Below: 5, Health: contracts.HealthGood},
	{Below: 10, Health: contracts.HealthAverage},
	{Below: 20, Health: contracts.HealthPoor},
}

// limitBand maps a minimum credit score to a credit-limit multiplier
type limitBand struct {
	MinScore   int
	Multiplier float64
}

var limitBands = []limitBand{
	{MinScore: 800, Multiplier: 1.5},
	{MinScore: 650, Multiplier: 1.2},
	{MinScore: 500, Multiplier: 1.0},
	{MinScore: 350, Multiplier: 0.7},
}

const lowestLimitMultiplier = 0.4

// RiskLevelFor bands a credit score (≥750 low, ≥600 medium, ≥400 high, else critical)
func RiskLevelFor(score int) contracts.RiskLevel {
	for _, b := range riskLevelBands {
		if score >= b.MinScore {
			return b.Level
		}
	}
	return contracts.RiskLevelCritical
}

// FinancialHealthFor bands a PD percentage (<2 excellent … ≥20 critical)
func FinancialHealthFor(pd float64) contracts.FinancialHealth {
	for _, b := range healthBands {
		if pd < b.Below {
			return b.Health
		}
	}
	return contracts.HealthCritical
}

// RiskMultiplier returns the credit-limit multiplier for a credit score
func RiskMultiplier(score int) float64 {
	for _, b := range limitBands {
		if score >= b.MinScore {
			return b.Multiplier
		}
	}
	return lowestLimitMultiplier
}

// PDRiskLevel is the coarse PD banding used by quick analyses (<5 low, <10 medium, else high)
func PDRiskLevel(pd float64) contracts.RiskLevel {
	switch {
	case pd < 5:
		return contracts.RiskLevelLow
	case pd < 10:
		return contracts.RiskLevelMedium
	default:
		return contracts.RiskLevelHigh
	}
}
