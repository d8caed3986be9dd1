package paystuberrors

import (
	"net/http"

	"go-paynorth/internal/shared/apperror"
)

var (
	ErrPaystubNotFound = apperror.New(
		apperror.CodeNotFound,
		"Paystub not found",
		http.StatusNotFound,
	)
	ErrSlipNotGenerated = apperror.New(
		apperror.CodeNotFound,
		"Paystub slip is not generated yet",
		http.StatusNotFound,
	)
	ErrInvalidYearFilter = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid year filter, expected YYYY",
		http.StatusBadRequest,
	)
)
