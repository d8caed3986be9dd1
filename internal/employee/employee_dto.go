package employee

type CreateEmployeeRequest struct {
	FullName       string  `json:"full_name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	EmployeeNumber string  `json:"employee_number"`
	PayType        string  `json:"pay_type" binding:"required,oneof=salary hourly"`
	PayRate        float64 `json:"pay_rate" binding:"required,gt=0"`
	PayFrequency   string  `json:"pay_frequency" binding:"required,oneof=weekly biweekly semimonthly monthly"`
	Province       string  `json:"province" binding:"required,len=2"`
	FederalBPA     float64 `json:"federal_bpa" binding:"required,gt=0"`
	ProvincialBPA  float64 `json:"provincial_bpa" binding:"required,gt=0"`

	UnionDues             float64 `json:"union_dues" binding:"gte=0"`
	AdditionalWithholding float64 `json:"additional_withholding" binding:"gte=0"`
	HealthPremium         float64 `json:"health_premium" binding:"gte=0"`
	DentalPremium         float64 `json:"dental_premium" binding:"gte=0"`
	LifeInsurancePremium  float64 `json:"life_insurance_premium" binding:"gte=0"`

	HireDate string `json:"hire_date" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FullName      string  `json:"full_name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	PayType       string  `json:"pay_type" binding:"required,oneof=salary hourly"`
	PayRate       float64 `json:"pay_rate" binding:"required,gt=0"`
	PayFrequency  string  `json:"pay_frequency" binding:"required,oneof=weekly biweekly semimonthly monthly"`
	Province      string  `json:"province" binding:"required,len=2"`
	FederalBPA    float64 `json:"federal_bpa" binding:"required,gt=0"`
	ProvincialBPA float64 `json:"provincial_bpa" binding:"required,gt=0"`

	UnionDues             float64 `json:"union_dues" binding:"gte=0"`
	AdditionalWithholding float64 `json:"additional_withholding" binding:"gte=0"`
	HealthPremium         float64 `json:"health_premium" binding:"gte=0"`
	DentalPremium         float64 `json:"dental_premium" binding:"gte=0"`
	LifeInsurancePremium  float64 `json:"life_insurance_premium" binding:"gte=0"`
}

type ChangeEmployeeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active on_leave terminated"`
}

type EmployeeResponse struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	EmployeeNumber string  `json:"employee_number"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	PayType        string  `json:"pay_type"`
	PayRate        float64 `json:"pay_rate"`
	PayFrequency   string  `json:"pay_frequency"`
	Province       string  `json:"province"`
	FederalBPA     float64 `json:"federal_bpa"`
	ProvincialBPA  float64 `json:"provincial_bpa"`

	UnionDues             float64 `json:"union_dues"`
	AdditionalWithholding float64 `json:"additional_withholding"`
	HealthPremium         float64 `json:"health_premium"`
	DentalPremium         float64 `json:"dental_premium"`
	LifeInsurancePremium  float64 `json:"life_insurance_premium"`

	Status   string `json:"status"`
	HireDate string `json:"hire_date"`
}
