package paystub

type PaystubResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	EmployeeID     string `json:"employee_id"`
	EmployeeName   string `json:"employee_name,omitempty"`
	EmployeeNumber string `json:"employee_number,omitempty"`
	RunID          string `json:"run_id,omitempty"`

	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PayDate     string `json:"pay_date"`

	GrossPay          float64 `json:"gross_pay"`
	FederalTax        float64 `json:"federal_tax"`
	ProvincialTax     float64 `json:"provincial_tax"`
	CPP               float64 `json:"cpp"`
	EI                float64 `json:"ei"`
	OtherDeductions   float64 `json:"other_deductions"`
	Reimbursements    float64 `json:"reimbursements"`
	NetPay            float64 `json:"net_pay"`
	YTDEarningsBefore float64 `json:"ytd_earnings_before"`

	SlipGeneratedAt string `json:"slip_generated_at,omitempty"`
}

func MapToResponse(stub Paystub) PaystubResponse {
	resp := PaystubResponse{
		ID:                stub.ID.String(),
		CompanyID:         stub.CompanyID.String(),
		EmployeeID:        stub.EmployeeID.String(),
		EmployeeName:      stub.EmployeeName,
		EmployeeNumber:    stub.EmployeeNumber,
		PeriodStart:       stub.PeriodStart.Format("2006-01-02"),
		PeriodEnd:         stub.PeriodEnd.Format("2006-01-02"),
		PayDate:           stub.PayDate.Format("2006-01-02"),
		GrossPay:          stub.GrossPay,
		FederalTax:        stub.FederalTax,
		ProvincialTax:     stub.ProvincialTax,
		CPP:               stub.CPP,
		EI:                stub.EI,
		OtherDeductions:   stub.OtherDeductions,
		Reimbursements:    stub.Reimbursements,
		NetPay:            stub.NetPay,
		YTDEarningsBefore: stub.YTDEarningsBefore,
	}

	if stub.RunID != nil {
		resp.RunID = stub.RunID.String()
	}
	if stub.SlipGeneratedAt != nil {
		resp.SlipGeneratedAt = stub.SlipGeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	return resp
}

func MapToListResponse(stubs []Paystub) []PaystubResponse {
	resp := make([]PaystubResponse, len(stubs))
	for i, stub := range stubs {
		resp[i] = MapToResponse(stub)
	}
	return resp
}
