package scoring

import (
	"math"

	"github.com/wonny/finrisk/internal/contracts"
)

// Risk factor names
const (
	FactorProfitability  = "profitability"
	FactorLiquidity      = "liquidity"
	FactorLeverage       = "leverage"
	FactorSectorRisk     = "sector_risk"
	FactorCompanySize    = "company_size"
	FactorPaymentHistory = "payment_history"
)

// largeCompanyRevenue marks a company as "good" on size (TL)
const (
	largeCompanyRevenue  = 5_000_000
	companySizeReference = 10_000_000
)

// RiskFactors returns the weighted factor breakdown shown to analysts
// Metric-based factors are present only when m is non-nil.
func (e *Engine) RiskFactors(c *contracts.Company, m *contracts.FinancialMetric) contracts.RiskFactors {
	factors := make(contracts.RiskFactors, 6)

	if m != nil {
		factors[FactorProfitability] = contracts.RiskFactor{
			Score:  m.NetIncome / math.Max(m.Revenue, 1) * 100,
			Weight: 0.25,
			Status: goodOrPoor(m.NetIncome > 0),
		}
		factors[FactorLiquidity] = contracts.RiskFactor{
			Score:  m.CurrentRatio,
			Weight: 0.20,
			Status: goodOrPoor(m.CurrentRatio > 1.2),
		}
		factors[FactorLeverage] = contracts.RiskFactor{
			Score:  m.DebtToEquity,
			Weight: 0.20,
			Status: goodOrPoor(m.DebtToEquity < 2.0),
		}
	}

	multiplier := e.sectors.Multiplier(c.Sector)
	factors[FactorSectorRisk] = contracts.RiskFactor{
		Score:  1 / multiplier,
		Weight: 0.15,
		Status: sectorStatus(multiplier),
	}

	sizeStatus := contracts.FactorMedium
	if c.Revenue > largeCompanyRevenue {
		sizeStatus = contracts.FactorGood
	}
	factors[FactorCompanySize] = contracts.RiskFactor{
		Score:  math.Min(1, c.Revenue/companySizeReference),
		Weight: 0.10,
		Status: sizeStatus,
	}

	active := c.Status == contracts.StatusActive
	paymentScore := 0.5
	if active {
		paymentScore = 1.0
	}
	factors[FactorPaymentHistory] = contracts.RiskFactor{
		Score:  paymentScore,
		Weight: 0.10,
		Status: goodOrPoor(active),
	}

	return factors
}

func goodOrPoor(good bool) contracts.FactorStatus {
	if good {
		return contracts.FactorGood
	}
	return contracts.FactorPoor
}

func sectorStatus(multiplier float64) contracts.FactorStatus {
	switch {
	case multiplier < 1.1:
		return contracts.FactorGood
	case multiplier < 1.3:
		return contracts.FactorMedium
	default:
		return contracts.FactorPoor
	}
}
