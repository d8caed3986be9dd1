package taxtableerrors

import (
	"net/http"

	"go-paynorth/internal/shared/apperror"
)

var (
	ErrUnsupportedYear = apperror.New(
		apperror.CodeInvalidInput,
		"no tax table published for the requested year",
		http.StatusUnprocessableEntity,
	)
	ErrUnsupportedProvince = apperror.New(
		apperror.CodeInvalidInput,
		"no provincial tax table published for the requested province",
		http.StatusUnprocessableEntity,
	)
)
