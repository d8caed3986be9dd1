package payrollrunerrors

import (
	"go-paynorth/internal/shared/apperror"
	"net/http"
)

var (
	ErrRunNotFound = &apperror.AppError{
		Code:       apperror.CodeNotFound,
		Message:    "payroll run not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrAlreadyApproved = &apperror.AppError{
		Code:       apperror.CodeConflict,
		Message:    "payroll run has already been approved",
		HTTPStatus: http.StatusConflict,
	}

	ErrRunNotDraft = &apperror.AppError{
		Code:       apperror.CodeInvalidState,
		Message:    "payroll run is no longer in draft status",
		HTTPStatus: http.StatusConflict,
	}

	ErrInvalidDateRange = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "period end must not be before period start",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrPayDateBeforePeriodEnd = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "pay date must not be before period end",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrNoEligibleEmployees = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "no active employees are eligible for this payroll run",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrEmployeeNotActive = &apperror.AppError{
		Code:       apperror.CodeInvalidState,
		Message:    "employee is terminated and cannot be paid through a run",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrEmployeeNotInRun = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "employee is not a member of this payroll run",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrInvalidRunID = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "invalid payroll run id",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrPeriodAlreadyProcessed = &apperror.AppError{
		Code:       apperror.CodeConflict,
		Message:    "employee already has a paystub covering this pay period",
		HTTPStatus: http.StatusConflict,
	}

	ErrInvalidPeriodInput = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "invalid period input",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
)
