package payrollrun

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-paynorth/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	runs := r.Group("/payroll-runs")
	runs.Use(middleware.TenantContext())
	runs.Use(middleware.ContextLogger(logger))
	{
		runs.GET("", handler.GetAll)
		runs.GET("/:id", handler.GetById)
		runs.GET("/:id/paystubs", handler.GetPaystubs)
		runs.POST("", middleware.Idempotency(rdb), handler.Create)
		runs.POST("/:id/process", middleware.Idempotency(rdb), handler.Process)
		runs.POST("/:id/process-employee", middleware.Idempotency(rdb), handler.ProcessEmployee)
		runs.POST("/:id/approve", middleware.Idempotency(rdb), handler.Approve)
	}

	payroll := r.Group("/payroll")
	payroll.Use(middleware.TenantContext())
	payroll.Use(middleware.ContextLogger(logger))
	{
		payroll.POST("/adhoc", middleware.Idempotency(rdb), handler.ProcessAdhoc)
	}
}
