package payrollrun

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-paynorth/internal/shared/apperror"
	"go-paynorth/internal/shared/response"
)

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("payrollrun.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.handler")
	}
	return &Handler{service: service, rdb: rdb, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	h.releaseIdempotencyLock(c)

	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("payroll run request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id_validated")

	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.releaseIdempotencyLock(c)
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.CreateRun(ctx, companyID, userID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.storeIdempotentResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")

	resp, err := h.service.GetAll(c.Request.Context(), companyID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	companyID := c.GetString("company_id")

	resp, err := h.service.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPaystubs(c *gin.Context) {
	companyID := c.GetString("company_id")

	resp, err := h.service.GetPaystubs(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Process(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req ProcessRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.releaseIdempotencyLock(c)
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.ProcessRun(ctx, companyID, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.storeIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ProcessEmployee(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req ProcessEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.releaseIdempotencyLock(c)
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.ProcessEmployee(ctx, companyID, c.Param("id"), req.Input)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.storeIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ProcessAdhoc(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req AdhocProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.releaseIdempotencyLock(c)
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.ProcessAdhoc(ctx, companyID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.storeIdempotentResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	approverID := c.GetString("user_id_validated")

	resp, err := h.service.Approve(ctx, companyID, c.Param("id"), approverID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.storeIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

// storeIdempotentResponse fills the idempotency cache the middleware prepared
// and drops the in-flight lock. A replay of the same key then serves this
// response instead of re-running payroll.
func (h *Handler) storeIdempotentResponse(c *gin.Context, resp any) {
	cacheKey := c.GetString("idempotency_cache_key")
	if cacheKey == "" || h.rdb == nil {
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	if data, err := json.Marshal(resp); err == nil {
		if err := h.rdb.Set(ctx, cacheKey, data, 24*time.Hour).Err(); err != nil {
			h.logger.Error("idempotency cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		h.rdb.Del(ctx, lockKey)
	}
}

// releaseIdempotencyLock frees the lock without caching so the client can
// retry a failed request with the same key.
func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	lockKey := c.GetString("idempotency_lock_key")
	if lockKey == "" || h.rdb == nil {
		return
	}
	h.rdb.Del(context.WithoutCancel(c.Request.Context()), lockKey)
}
