package scoring

import "github.com/wonny/finrisk/internal/contracts"

// Stress scenario names
const (
	ScenarioBase     = "base_case"
	ScenarioMild     = "mild_stress"
	ScenarioModerate = "moderate_stress"
	ScenarioSevere   = "severe_stress"
)

// stressShocks are PD multipliers applied to the base case
// Results are not re-clamped: a severe shock may exceed MaxPD.
var stressShocks = []struct {
	Name  string
	Shock float64
}{
	{ScenarioBase, 1.0},
	{ScenarioMild, 1.5},
	{ScenarioModerate, 2.0},
	{ScenarioSevere, 3.0},
}

// StressTest scales the base PD by each scenario shock
func (e *Engine) StressTest(c *contracts.Company, m *contracts.FinancialMetric) contracts.StressScenarios {
	base := e.PDScore(c, m)
	scenarios := make(contracts.StressScenarios, len(stressShocks))
	for _, s := range stressShocks {
		scenarios[s.Name] = base * s.Shock
	}
	return scenarios
}
