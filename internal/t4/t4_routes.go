package t4

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
	t4s := r.Group("/t4s")
	t4s.Use(middleware.TenantContext())
	t4s.Use(middleware.ContextLogger(logger))
	{
		t4s.POST("", handler.Generate)
		t4s.POST("/year/:year/generate-all", handler.GenerateForCompany)
		t4s.GET("/year/:year", handler.GetAllByYear)
		t4s.GET("/year/:year/employee/:employeeId", handler.GetByEmployee)
	}
}
