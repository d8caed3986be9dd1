package t4

import "time"

type GenerateT4Request struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	TaxYear    int    `json:"tax_year" binding:"required,min=2000,max=2100"`
}

type T4Response struct {
	ID                    string    `json:"id"`
	EmployeeID            string    `json:"employee_id"`
	TaxYear               int       `json:"tax_year"`
	Box14EmploymentIncome float64   `json:"box14_employment_income"`
	Box16CPPContributions float64   `json:"box16_cpp_contributions"`
	Box18EIPremiums       float64   `json:"box18_ei_premiums"`
	Box22IncomeTax        float64   `json:"box22_income_tax"`
	PaystubCount          int       `json:"paystub_count"`
	Status                string    `json:"status"`
	GeneratedAt           time.Time `json:"generated_at"`
}

func mapToResponse(record *T4Record) T4Response {
	return T4Response{
		ID:                    record.ID.String(),
		EmployeeID:            record.EmployeeID.String(),
		TaxYear:               record.TaxYear,
		Box14EmploymentIncome: record.Box14EmploymentIncome,
		Box16CPPContributions: record.Box16CPPContributions,
		Box18EIPremiums:       record.Box18EIPremiums,
		Box22IncomeTax:        record.Box22IncomeTax,
		PaystubCount:          record.PaystubCount,
		Status:                record.Status,
		GeneratedAt:           record.GeneratedAt,
	}
}

func mapToListResponse(records []T4Record) []T4Response {
	resp := make([]T4Response, 0, len(records))
	for i := range records {
		resp = append(resp, mapToResponse(&records[i]))
	}
	return resp
}
