package taxtable

import (
	"fmt"
	"math"
	"sort"

	taxtableerrors "go-paynorth/internal/taxtable/errors"
)

// Unbounded marks the upper edge of the last bracket in a table.
var Unbounded = math.Inf(1)

// Bracket is one marginal-rate band: income in [From, To) is taxed at Rate.
type Bracket struct {
	From float64
	To   float64
	Rate float64
}

type CPPParams struct {
	Rate           float64
	MaxPensionable float64
	BasicExemption float64
}

type EIParams struct {
	Rate         float64
	MaxInsurable float64
}

// ProvinceTable carries one province's brackets and default basic personal
// amount for a tax year.
type ProvinceTable struct {
	Brackets []Bracket
	BPA      float64
}

// TaxYearTable is immutable once published. Provincial tables are keyed by
// two-letter province code; a missing province is an error, never a fallback.
type TaxYearTable struct {
	Year            int
	FederalBrackets []Bracket
	FederalBPA      float64
	CPP             CPPParams
	EI              EIParams

	provinces map[string]ProvinceTable
}

func (t *TaxYearTable) ProvincialBrackets(province string) ([]Bracket, error) {
	pt, ok := t.provinces[province]
	if !ok {
		return nil, taxtableerrors.ErrUnsupportedProvince
	}
	return pt.Brackets, nil
}

func (t *TaxYearTable) ProvincialBPA(province string) (float64, error) {
	pt, ok := t.provinces[province]
	if !ok {
		return 0, taxtableerrors.ErrUnsupportedProvince
	}
	return pt.BPA, nil
}

func (t *TaxYearTable) SupportsProvince(province string) bool {
	_, ok := t.provinces[province]
	return ok
}

// Provider resolves published tables by year.
type Provider struct {
	tables map[int]*TaxYearTable
}

// NewProvider registers every published tax year. It panics on malformed
// bracket data so a bad table can never ship.
func NewProvider() *Provider {
	p := &Provider{tables: make(map[int]*TaxYearTable)}
	for _, t := range publishedTables() {
		if err := validateTable(t); err != nil {
			panic(err)
		}
		p.tables[t.Year] = t
	}
	return p
}

func (p *Provider) Table(year int) (*TaxYearTable, error) {
	t, ok := p.tables[year]
	if !ok {
		return nil, taxtableerrors.ErrUnsupportedYear
	}
	return t, nil
}

func (p *Provider) Years() []int {
	years := make([]int, 0, len(p.tables))
	for y := range p.tables {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func validateTable(t *TaxYearTable) error {
	if err := validateBrackets(t.Year, "federal", t.FederalBrackets); err != nil {
		return err
	}
	for code, pt := range t.provinces {
		if err := validateBrackets(t.Year, code, pt.Brackets); err != nil {
			return err
		}
	}
	return nil
}

// validateBrackets enforces the table invariant: brackets start at zero, are
// contiguous and strictly increasing, and the last one is unbounded.
func validateBrackets(year int, scope string, brackets []Bracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("tax table %d/%s: empty bracket list", year, scope)
	}
	if brackets[0].From != 0 {
		return fmt.Errorf("tax table %d/%s: first bracket must start at 0", year, scope)
	}
	for i, b := range brackets {
		if b.To <= b.From {
			return fmt.Errorf("tax table %d/%s: bracket %d is not increasing", year, scope, i)
		}
		if i > 0 && brackets[i-1].To != b.From {
			return fmt.Errorf("tax table %d/%s: gap before bracket %d", year, scope, i)
		}
	}
	if !math.IsInf(brackets[len(brackets)-1].To, 1) {
		return fmt.Errorf("tax table %d/%s: last bracket must be unbounded", year, scope)
	}
	return nil
}
