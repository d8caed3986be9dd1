package deduction

import deductionerrors "go-paynorth/internal/deduction/errors"

const (
	FrequencyWeekly      = "weekly"
	FrequencyBiweekly    = "biweekly"
	FrequencySemimonthly = "semimonthly"
	FrequencyMonthly     = "monthly"
)

// PeriodsPerYear resolves a pay frequency to its period count. An unknown
// frequency is an error, never a default.
func PeriodsPerYear(frequency string) (int, error) {
	switch frequency {
	case FrequencyWeekly:
		return 52, nil
	case FrequencyBiweekly:
		return 26, nil
	case FrequencySemimonthly:
		return 24, nil
	case FrequencyMonthly:
		return 12, nil
	default:
		return 0, deductionerrors.ErrInvalidFrequency
	}
}
