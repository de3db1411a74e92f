package presenter

import "xerpihan-dashboard/internal/dataset"

// Fixed reference tables shown on the risk and portfolio pages. They are
// not derived from the loaded files.

func riskComponents() *dataset.Table {
	return dataset.MustTable("risk_components",
		[]string{"Scenario", "Market_Risk", "Credit_Risk", "Operational_Risk"},
		[][]string{
			{"Optimistic", "0.15", "0.08", "0.05"},
			{"Moderate", "0.12", "0.07", "0.04"},
			{"Pessimistic", "0.10", "0.06", "0.03"},
		})
}

func portfolioWeights() *dataset.Table {
	return dataset.MustTable("portfolio_weights",
		[]string{"Method", "Optimistic", "Moderate", "Pessimistic"},
		[][]string{
			{"HJB", "1.000", "0.000", "0.000"},
			{"Markowitz", "0.333", "0.333", "0.333"},
			{"Black-Litterman", "0.407", "0.407", "0.296"},
			{"RL", "0.055", "0.775", "0.170"},
		})
}

func methodPerformance() *dataset.Table {
	return dataset.MustTable("method_performance",
		[]string{"Method", "Expected_Return", "Sharpe_Ratio"},
		[][]string{
			{"HJB", "0.1854", "1.017e15"},
			{"Markowitz", "0.1400", "1.985e15"},
			{"Black-Litterman", "0.0786", "3.679e14"},
			{"RL", "0.1348", "1.746e15"},
		})
}
