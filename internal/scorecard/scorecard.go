// Package scorecard implements rule-based strategy scorecards over
// fundamental ratios.
package scorecard

import (
	"fmt"
)

// Strategy identifies a scoring framework.
type Strategy string

const (
	CANSLIM      Strategy = "canslim"
	MagicFormula Strategy = "magic-formula"
	Moat         Strategy = "moat"
)

// Strategies returns all known strategies.
func Strategies() []Strategy {
	return []Strategy{CANSLIM, MagicFormula, Moat}
}

// Verdict is the automated call produced by a scorecard.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictNeutral Verdict = "NEUTRAL"
	VerdictFail    Verdict = "FAIL"
)

// Fundamentals holds the upstream ratios a scorecard reads. Missing
// upstream fields stay zero and are scored as-is, matching how the
// dashboard substitutes zero for absent data.
type Fundamentals struct {
	Price            float64
	EPSGrowth        float64 // fractional, 0.15 = 15%
	RevenueGrowth    float64 // fractional
	FiftyTwoWeekHigh float64
	TrailingPE       float64
	ReturnOnEquity   float64 // fractional
	GrossMargin      float64 // fractional
	DebtToEquity     float64 // percentage points, as reported upstream
}

// Rule is one scored criterion with its observed and target values.
type Rule struct {
	Name   string
	Actual string
	Target string
	Passed bool
}

// Result is the outcome of evaluating one strategy.
type Result struct {
	Strategy Strategy
	Rules    []Rule
	Score    int
	MaxScore int
	Verdict  Verdict
}

// Evaluate runs the given strategy's rules against the fundamentals.
func Evaluate(strategy Strategy, f Fundamentals) (Result, error) {
	var rules []Rule
	switch strategy {
	case CANSLIM:
		rules = canslimRules(f)
	case MagicFormula:
		rules = magicFormulaRules(f)
	case Moat:
		rules = moatRules(f)
	default:
		return Result{}, fmt.Errorf("unknown strategy: %s", strategy)
	}

	res := Result{Strategy: strategy, Rules: rules, MaxScore: len(rules)}
	for _, r := range rules {
		if r.Passed {
			res.Score++
		}
	}
	switch {
	case res.Score == res.MaxScore:
		res.Verdict = VerdictPass
	case res.Score > 0:
		res.Verdict = VerdictNeutral
	default:
		res.Verdict = VerdictFail
	}
	return res, nil
}

// canslimRules scores growth and momentum: EPS growth, revenue growth,
// and proximity to the 52-week high.
func canslimRules(f Fundamentals) []Rule {
	distance := 0.0
	if f.FiftyTwoWeekHigh > 0 {
		distance = f.Price / f.FiftyTwoWeekHigh * 100
	}
	return []Rule{
		{
			Name:   "EPS Growth",
			Actual: fmt.Sprintf("%.1f%%", f.EPSGrowth*100),
			Target: ">15%",
			Passed: f.EPSGrowth > 0.15,
		},
		{
			Name:   "Revenue Growth",
			Actual: fmt.Sprintf("%.1f%%", f.RevenueGrowth*100),
			Target: ">15%",
			Passed: f.RevenueGrowth > 0.15,
		},
		{
			Name:   "Near 52W High",
			Actual: fmt.Sprintf("%.0f%%", distance),
			Target: ">85%",
			Passed: distance > 85,
		},
	}
}

// magicFormulaRules scores quality at a reasonable price: earnings yield
// and return on equity.
func magicFormulaRules(f Fundamentals) []Rule {
	earningsYield := 0.0
	if f.TrailingPE > 0 {
		earningsYield = 1 / f.TrailingPE * 100
	}
	return []Rule{
		{
			Name:   "Earnings Yield",
			Actual: fmt.Sprintf("%.2f%%", earningsYield),
			Target: ">4%",
			Passed: earningsYield > 4,
		},
		{
			Name:   "Return on Equity",
			Actual: fmt.Sprintf("%.1f%%", f.ReturnOnEquity*100),
			Target: ">15%",
			Passed: f.ReturnOnEquity > 0.15,
		},
	}
}

// moatRules scores competitive advantage and balance-sheet safety.
func moatRules(f Fundamentals) []Rule {
	return []Rule{
		{
			Name:   "Gross Margin",
			Actual: fmt.Sprintf("%.1f%%", f.GrossMargin*100),
			Target: ">30%",
			Passed: f.GrossMargin > 0.30,
		},
		{
			Name:   "Return on Equity",
			Actual: fmt.Sprintf("%.1f%%", f.ReturnOnEquity*100),
			Target: ">15%",
			Passed: f.ReturnOnEquity > 0.15,
		},
		{
			Name:   "Debt / Equity",
			Actual: fmt.Sprintf("%.0f", f.DebtToEquity),
			Target: "<50",
			Passed: f.DebtToEquity < 50,
		},
	}
}
