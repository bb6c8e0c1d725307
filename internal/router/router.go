package router

import (
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/handler"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/middleware"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"
	"sdkadmin/internal/service"
	"sdkadmin/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, policy config.CashUpPolicy, db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Env, cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	locker := infra.NewLocker(rdb)
	summaryCache := infra.NewSummaryCache(rdb)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	importRepo := repository.NewImportRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	policyRepo := repository.NewPolicyLinkageRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	cashUpRepo := repository.NewCashUpRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	importSvc := service.NewImportService(importRepo)
	resolverSvc := service.NewResolverService(txRepo, policyRepo, locker)
	cashUpSvc := service.NewCashUpService(cashUpRepo, employeeRepo, policy, summaryCache)
	summarySvc := service.NewSummaryService(cashUpRepo, employeeRepo, policy, summaryCache, cfg.SummaryCacheTTL())
	employeeSvc := service.NewEmployeeService(employeeRepo, summaryCache)

	// ── Handlers ─────────────────────────────────────────────────────────────
	transactionsH := handler.NewTransactionsHandler(importSvc, resolverSvc)
	cashUpsH := handler.NewCashUpsHandler(cashUpSvc, policy)
	summaryH := handler.NewSummaryHandler(summarySvc, dispatcher, policy)
	employeesH := handler.NewEmployeesHandler(employeeSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	anyRole := middleware.RequireRole(model.RoleStaff, model.RoleReviewer, model.RoleAdmin)
	reviewers := middleware.RequireRole(model.RoleReviewer, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		tx := v1.Group("/transactions", reviewers)
		{
			// statement uploads are heavy; keep them well under the global limit
			importLimit := middleware.RateLimiter(30, time.Minute)
			tx.POST("/import", importLimit, transactionsH.Import)
			tx.POST("/import/file", importLimit, transactionsH.ImportFile)
			tx.GET("/batches", transactionsH.ListBatches)
			tx.GET("", transactionsH.List)
			tx.POST("/resolve", transactionsH.Resolve)
		}
		v1.PATCH("/transactions/:id/policy", adminOnly, transactionsH.OverridePolicy)

		// Staff submit and read their own; reviewers handle the rest
		v1.POST("/cashups", anyRole, cashUpsH.Submit)
		v1.GET("/cashups/evaluate", anyRole, cashUpsH.Evaluate)
		v1.GET("/cashups/:id", anyRole, cashUpsH.Get)
		v1.POST("/cashups/:id/attachments", anyRole, cashUpsH.AddAttachment)
		review := v1.Group("/cashups", reviewers)
		{
			review.GET("", cashUpsH.ListByDate)
			review.PUT("/:id/system-balance", cashUpsH.RecordSystemBalance)
			review.POST("/:id/notes", cashUpsH.AddNote)
			review.POST("/:id/resolve", cashUpsH.Resolve)
			review.GET("/weekly", summaryH.Weekly)
			review.POST("/weekly/report", summaryH.QueueWeeklyReport)
		}

		v1.GET("/employees", reviewers, employeesH.List)
		employees := v1.Group("/employees", adminOnly)
		{
			employees.POST("", employeesH.Create)
			employees.DELETE("/:id", employeesH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
