package scoring

import (
	"math"

	"github.com/wonny/finrisk/internal/contracts"
)

// Sub-score formulas. Each one has a coarse branch (company-level data only)
// and a detailed branch used when a financial metric snapshot is supplied.

// financialHealthScore is capped at MaxHealthScore
func financialHealthScore(c *contracts.Company, m *contracts.FinancialMetric) float64 {
	if m == nil {
		if c.Assets <= 0 {
			return 0
		}
		equityRatio := (c.Assets - c.Liabilities) / c.Assets
		return math.Min(MaxHealthScore, equityRatio*400)
	}

	var score float64

	// Profitability: up to 40%
	if m.Revenue > 0 {
		margin := m.NetIncome / m.Revenue
		score += clamp(margin*1000, -70, 140)
	}

	// Liquidity: up to 30%
	if m.CurrentRatio > 0 {
		score += math.Min(105, m.CurrentRatio*50)
	}

	// Leverage: up to 30%
	if m.DebtToEquity >= 0 {
		score += math.Max(0, 105-m.DebtToEquity*20)
	}

	return clamp(score, 0, MaxHealthScore)
}

// paymentHistoryScore is a status proxy; no payment events are tracked
func paymentHistoryScore(c *contracts.Company) float64 {
	switch c.Status {
	case contracts.StatusActive:
		return 200
	case contracts.StatusMonitoring:
		return 100
	default:
		return 50
	}
}

// sectorScore is higher for low-risk sectors
func sectorScore(multiplier float64) float64 {
	return 100 / multiplier
}

// liquidityScore is capped at MaxLiquidityScore
func liquidityScore(c *contracts.Company, m *contracts.FinancialMetric) float64 {
	if m == nil {
		switch {
		case c.Assets > c.Liabilities*1.5:
			return 120
		case c.Assets > c.Liabilities:
			return 80
		default:
			return 20
		}
	}

	currentRatioScore := math.Min(75, m.CurrentRatio*25)
	quickRatioScore := math.Min(75, m.QuickRatio*30)
	return currentRatioScore + quickRatioScore
}

// pdInputs returns (debt_to_equity, current_ratio, roa) for the PD logit
func (p PDModel) pdInputs(c *contracts.Company, m *contracts.FinancialMetric) (float64, float64, float64) {
	if m == nil {
		debtToEquity := c.Liabilities / math.Max(c.Assets-c.Liabilities, 1)
		return debtToEquity, p.DefaultCurrentRatio, p.DefaultROA
	}
	return m.DebtToEquity, m.CurrentRatio, m.ROA
}

// logit evaluates the linear part of the PD model
func (p PDModel) logit(debtToEquity, currentRatio, roa float64) float64 {
	return p.Intercept +
		p.DebtCoeff*math.Min(debtToEquity, p.MaxDebtToEquity) +
		p.LiquidityCoeff*math.Min(currentRatio, p.MaxCurrentRatio) +
		p.ProfitabilityCoeff*math.Max(roa, p.MinROA)
}

// logistic is the standard sigmoid 1/(1+e^-x)
func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
