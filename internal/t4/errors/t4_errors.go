package t4errors

import (
	"go-paynorth/internal/shared/apperror"
	"net/http"
)

var (
	ErrT4NotFound = &apperror.AppError{
		Code:       apperror.CodeNotFound,
		Message:    "t4 slip not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrInvalidTaxYear = &apperror.AppError{
		Code:       apperror.CodeInvalidInput,
		Message:    "invalid tax year",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
)
