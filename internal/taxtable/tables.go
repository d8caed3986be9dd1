package taxtable

// Province codes for published provincial tables.
const (
	ProvinceOntario = "ON"
)

// publishedTables returns every tax year this build knows about. Adding a
// year or a province happens here, never in calculator code.
func publishedTables() []*TaxYearTable {
	return []*TaxYearTable{
		{
			Year: 2023,
			FederalBrackets: []Bracket{
				{From: 0, To: 53359, Rate: 0.15},
				{From: 53359, To: 106717, Rate: 0.205},
				{From: 106717, To: 165430, Rate: 0.26},
				{From: 165430, To: 235675, Rate: 0.29},
				{From: 235675, To: Unbounded, Rate: 0.33},
			},
			FederalBPA: 15000,
			CPP: CPPParams{
				Rate:           0.0595,
				MaxPensionable: 66600,
				BasicExemption: 3500,
			},
			EI: EIParams{
				Rate:         0.0163,
				MaxInsurable: 63200,
			},
			provinces: map[string]ProvinceTable{
				ProvinceOntario: {
					Brackets: []Bracket{
						{From: 0, To: 49231, Rate: 0.0505},
						{From: 49231, To: 98463, Rate: 0.0915},
						{From: 98463, To: 150000, Rate: 0.1116},
						{From: 150000, To: 220000, Rate: 0.1216},
						{From: 220000, To: Unbounded, Rate: 0.1316},
					},
					BPA: 11865,
				},
			},
		},
		{
			Year: 2024,
			FederalBrackets: []Bracket{
				{From: 0, To: 55867, Rate: 0.15},
				{From: 55867, To: 111733, Rate: 0.205},
				{From: 111733, To: 173205, Rate: 0.26},
				{From: 173205, To: 246752, Rate: 0.29},
				{From: 246752, To: Unbounded, Rate: 0.33},
			},
			FederalBPA: 15705,
			CPP: CPPParams{
				Rate:           0.0595,
				MaxPensionable: 68500,
				BasicExemption: 3500,
			},
			EI: EIParams{
				Rate:         0.0166,
				MaxInsurable: 63200,
			},
			provinces: map[string]ProvinceTable{
				ProvinceOntario: {
					Brackets: []Bracket{
						{From: 0, To: 51446, Rate: 0.0505},
						{From: 51446, To: 102894, Rate: 0.0915},
						{From: 102894, To: 150000, Rate: 0.1116},
						{From: 150000, To: 220000, Rate: 0.1216},
						{From: 220000, To: Unbounded, Rate: 0.1316},
					},
					BPA: 12399,
				},
			},
		},
	}
}
