package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-paynorth/internal/employee"
	"go-paynorth/internal/messaging/kafka"
	"go-paynorth/internal/paystub"
	"go-paynorth/internal/payrollrun"
	"go-paynorth/internal/shared/counter"
	"go-paynorth/internal/t4"
	"go-paynorth/internal/taxtable"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	paystubRepo := paystub.NewRepository(gormDB)
	runRepo := payrollrun.NewRepository(gormDB)
	t4Repo := t4.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Tax tables ---
	taxTables := taxtable.NewProvider()

	// --- Services ---
	employeeService := employee.NewService(db, employeeRepo, counterRepo, taxTables, rdb)
	paystubService := paystub.NewService(paystubRepo)
	runService := payrollrun.NewService(db, runRepo, employeeRepo, paystubRepo, counterRepo, taxTables, outboxRepo)
	t4Service := t4.NewService(t4Repo, employeeRepo, paystubRepo)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)
	paystubHandler := paystub.NewHandler(paystubService)
	runHandler := payrollrun.NewHandler(runService, rdb)
	t4Handler := t4.NewHandler(t4Service)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler, logger)
		paystub.RegisterRoutes(api, paystubHandler, logger)
		payrollrun.RegisterRoutes(api, runHandler, rdb, logger)
		t4.RegisterRoutes(api, t4Handler, logger)
	}

	return nil
}
