package router

import (
	"time"

	"cargoport/internal/config"
	"cargoport/internal/handler"
	"cargoport/internal/middleware"
	"cargoport/internal/repository"
	"cargoport/internal/service"
	"cargoport/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, jobs *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	vehicleRepo := repository.NewVehicleRepository(db)
	containerRepo := repository.NewContainerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	counterpartyRepo := repository.NewCounterpartyRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	distributor := service.NewSurchargeDistributor(catalogRepo, assignmentRepo, counterpartyRepo, cfg.SurchargeRoundingUnit)
	pricingSvc := service.NewPricingService(vehicleRepo, containerRepo, assignmentRepo, catalogRepo, counterpartyRepo, distributor, rdb)
	vehicleSvc := service.NewVehicleService(vehicleRepo, containerRepo, assignmentRepo, catalogRepo, pricingSvc)
	containerSvc := service.NewContainerService(containerRepo, vehicleRepo, distributor, pricingSvc)
	var recomputeQueue service.RecomputeQueue
	if jobs != nil {
		recomputeQueue = jobs
	}
	catalogSvc := service.NewCatalogService(catalogRepo, assignmentRepo, rdb, recomputeQueue)
	counterpartySvc := service.NewCounterpartyService(counterpartyRepo)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, vehicleRepo, assignmentRepo, catalogRepo, paymentRepo, rdb)
	ledgerSvc := service.NewLedgerService(paymentRepo, invoiceRepo, counterpartyRepo, invoiceSvc, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	vehiclesH := handler.NewVehiclesHandler(vehicleSvc)
	containersH := handler.NewContainersHandler(containerSvc, vehicleSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	counterpartiesH := handler.NewCounterpartiesHandler(counterpartySvc, ledgerSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	paymentsH := handler.NewPaymentsHandler(ledgerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", vehiclesH.Create)
			vehicles.GET("", vehiclesH.List)
			vehicles.GET("/:id", vehiclesH.Get)
			vehicles.PATCH("/:id", vehiclesH.Update)
			vehicles.DELETE("/:id", vehiclesH.Delete)
			vehicles.GET("/:id/services", vehiclesH.ListServices)
			vehicles.POST("/:id/services", vehiclesH.AssignService)
			vehicles.DELETE("/:id/services/:assignment_id", vehiclesH.RemoveService)
		}

		containers := v1.Group("/containers")
		{
			containers.POST("", containersH.Create)
			containers.GET("", containersH.List)
			containers.GET("/:id", containersH.Get)
			containers.PATCH("/:id", containersH.Update)
			containers.GET("/:id/vehicles", containersH.ListVehicles)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.POST("", catalogH.Create)
			catalog.GET("", catalogH.List)
			catalog.GET("/:id", catalogH.Get)
			catalog.PUT("/:id", catalogH.Update)
			catalog.DELETE("/:id", catalogH.Delete)
		}

		counterparties := v1.Group("/counterparties")
		{
			counterparties.POST("/clients", counterpartiesH.CreateClient)
			counterparties.POST("/warehouses", counterpartiesH.CreateWarehouse)
			counterparties.POST("/lines", counterpartiesH.CreateLine)
			counterparties.POST("/carriers", counterpartiesH.CreateCarrier)
			counterparties.POST("/companies", counterpartiesH.CreateCompany)
			counterparties.GET("/:kind", counterpartiesH.List)
			counterparties.GET("/:kind/:id", counterpartiesH.Get)
			counterparties.GET("/:kind/:id/balance", counterpartiesH.Balance)
		}

		lines := v1.Group("/lines")
		{
			lines.GET("/:id/coefficients", counterpartiesH.ListCoefficients)
			lines.PUT("/:id/coefficients", counterpartiesH.SetCoefficient)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("", invoicesH.List)
			invoices.GET("/:id", invoicesH.Get)
			invoices.POST("/:id/regenerate", invoicesH.Regenerate)
			invoices.POST("/:id/issue", invoicesH.Issue)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", paymentsH.Create)
			payments.GET("", paymentsH.List)
			payments.GET("/:id", paymentsH.Get)
			payments.DELETE("/:id", paymentsH.Delete)
		}

		balances := v1.Group("/balances")
		{
			balances.POST("/recalculate", paymentsH.RecalculateBalances)
			balances.GET("/consistency", paymentsH.ConsistencyReport)
		}
	}

	return r
}
