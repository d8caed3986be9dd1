package deduction

import (
	"go-paynorth/internal/taxtable"
)

// Input is everything one per-period deduction computation needs. Monetary
// fields are assumed non-negative; validating them is the caller's job.
type Input struct {
	GrossPay        float64
	Frequency       string
	Province        string
	FederalBPA      float64
	ProvincialBPA   float64
	YTDEarnings     float64
	OtherDeductions float64
}

// Result is one itemized gross-to-net breakdown, every component rounded to
// the cent.
type Result struct {
	GrossPay        float64
	FederalTax      float64
	ProvincialTax   float64
	CPP             float64
	EI              float64
	OtherDeductions float64
	TotalDeductions float64
	NetPay          float64
}

// Compute turns one period's gross pay into an itemized deduction result.
//
// Income tax is annualized (gross × periods), taxed through the brackets,
// then prorated back to the period. The annualization assumes every period
// pays the same gross; a one-off bonus distorts only that period's
// withholding since each period is computed independently. CPP and EI are
// cumulative instead: they consume the true YTD so caps and exemptions land
// on the right period. The function is pure and trusts the YTD it is given;
// callers must serialize processing per employee to keep it in sequence.
func Compute(in Input, table *taxtable.TaxYearTable) (Result, error) {
	periods, err := PeriodsPerYear(in.Frequency)
	if err != nil {
		return Result{}, err
	}

	provincialBrackets, err := table.ProvincialBrackets(in.Province)
	if err != nil {
		return Result{}, err
	}

	annualIncome := in.GrossPay * float64(periods)

	annualFederal := FederalTax(annualIncome, in.FederalBPA, table.FederalBrackets)
	annualProvincial := ProvincialTax(annualIncome, in.ProvincialBPA, provincialBrackets)

	federal := RoundCents(annualFederal / float64(periods))
	provincial := RoundCents(annualProvincial / float64(periods))

	cpp := CPP(in.GrossPay, in.YTDEarnings, table.CPP)
	ei := EI(in.GrossPay, in.YTDEarnings, table.EI)

	total := RoundCents(federal + provincial + cpp + ei + in.OtherDeductions)

	return Result{
		GrossPay:        RoundCents(in.GrossPay),
		FederalTax:      federal,
		ProvincialTax:   provincial,
		CPP:             cpp,
		EI:              ei,
		OtherDeductions: RoundCents(in.OtherDeductions),
		TotalDeductions: total,
		NetPay:          RoundCents(in.GrossPay - total),
	}, nil
}
