package paystub

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-paynorth/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	logger *zap.Logger,
) {
	paystubs := r.Group("/paystubs")
	paystubs.Use(middleware.TenantContext())
	paystubs.Use(middleware.ContextLogger(logger))
	{
		paystubs.GET("/:id", handler.GetById)
		paystubs.GET("/:id/slip", handler.DownloadSlip)
		paystubs.GET("/employee/:employeeId", handler.GetAllByEmployee)
	}
}
