package deductionerrors

import (
	"net/http"

	"go-paynorth/internal/shared/apperror"
)

var ErrInvalidFrequency = apperror.New(
	apperror.CodeInvalidInput,
	"unrecognized pay frequency",
	http.StatusUnprocessableEntity,
)
