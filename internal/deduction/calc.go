package deduction

import (
	"math"

	"go-paynorth/internal/taxtable"
)

// RoundCents rounds a dollar amount to the nearest cent, half away from zero.
// Every statutory figure is rounded at the point of computation so downstream
// totals reconcile to the cent.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CPP computes the period's Canada Pension Plan contribution. Contribution
// room is the delta between pensionable earnings at (ytd+gross) and at ytd
// alone, so caps and the basic exemption prorate correctly across periods.
func CPP(gross, ytd float64, params taxtable.CPPParams) float64 {
	current := pensionable(ytd+gross, params)
	previous := pensionable(ytd, params)
	contribution := (current - previous) * params.Rate
	if contribution <= 0 {
		return 0
	}
	return RoundCents(contribution)
}

func pensionable(earnings float64, params taxtable.CPPParams) float64 {
	p := math.Min(earnings, params.MaxPensionable) - params.BasicExemption
	if p < 0 {
		return 0
	}
	return p
}

// EI computes the period's Employment Insurance premium. Unlike CPP there is
// no basic exemption, only the annual insurable maximum.
func EI(gross, ytd float64, params taxtable.EIParams) float64 {
	insurable := math.Min(ytd+gross, params.MaxInsurable) - ytd
	if insurable <= 0 {
		return 0
	}
	return RoundCents(insurable * params.Rate)
}

// FederalTax computes annual federal income tax on annualized income via
// marginal bracket accumulation. Income at or below the basic personal
// amount owes nothing; marginal rates produce no cliff effects.
func FederalTax(annualIncome, basicPersonalAmount float64, brackets []taxtable.Bracket) float64 {
	return marginalTax(annualIncome, basicPersonalAmount, brackets)
}

// ProvincialTax is the same marginal algorithm over a province's brackets
// and basic personal amount.
func ProvincialTax(annualIncome, basicPersonalAmount float64, brackets []taxtable.Bracket) float64 {
	return marginalTax(annualIncome, basicPersonalAmount, brackets)
}

func marginalTax(annualIncome, bpa float64, brackets []taxtable.Bracket) float64 {
	taxable := annualIncome - bpa
	if taxable <= 0 {
		return 0
	}
	var tax float64
	for _, b := range brackets {
		if taxable <= b.From {
			break
		}
		tax += (math.Min(taxable, b.To) - b.From) * b.Rate
	}
	return RoundCents(tax)
}
