package t4

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-paynorth/internal/shared/apperror"
	"go-paynorth/internal/shared/response"
	t4errors "go-paynorth/internal/t4/errors"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("t4.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("t4.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("t4 request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Generate(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req GenerateT4Request
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), companyID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GenerateForCompany(c *gin.Context) {
	companyID := c.GetString("company_id")

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.writeServiceError(c, t4errors.ErrInvalidTaxYear)
		return
	}

	resp, err := h.service.GenerateForCompany(c.Request.Context(), companyID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByEmployee(c *gin.Context) {
	companyID := c.GetString("company_id")

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.writeServiceError(c, t4errors.ErrInvalidTaxYear)
		return
	}

	resp, err := h.service.GetByEmployeeAndYear(c.Request.Context(), companyID, c.Param("employeeId"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetAllByYear(c *gin.Context) {
	companyID := c.GetString("company_id")

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.writeServiceError(c, t4errors.ErrInvalidTaxYear)
		return
	}

	resp, err := h.service.GetAllByYear(c.Request.Context(), companyID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
