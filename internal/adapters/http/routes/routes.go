package routes

import (
	"time"

	"hr-loanengine/internal/adapters/http/handlers"
	"hr-loanengine/internal/adapters/http/middleware"
	"hr-loanengine/internal/config"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
)

// Services are the application services the routes are served by
type Services struct {
	Loans      *services.LoanService
	Repayments *services.RepaymentService
	Statistics *services.StatisticsService
	Directory  services.EmployeeDirectory
	// Searcher is nil when the employee directory is remote
	Searcher services.EmployeeSearcher
	// Ping checks the database for /health
	Ping func() error
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc Services, cfg *config.Config, log *logrus.Logger) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, svc.Ping)
	loanHandler := handlers.NewLoanHandler(svc.Loans, log)
	repaymentHandler := handlers.NewRepaymentHandler(svc.Repayments, log)
	statisticsHandler := handlers.NewStatisticsHandler(svc.Statistics, log)
	employeeHandler := handlers.NewEmployeeHandler(svc.Directory, svc.Searcher, log)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", middleware.CacheControl(time.Hour), swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	protected := apiV1.Group("", middleware.AuthMiddleware(cfg.JWT), middleware.NoCacheHeaders())
	setupLoanRoutes(protected.Group("/loans"), loanHandler, statisticsHandler)
	setupRepaymentRoutes(protected.Group("/repayments"), repaymentHandler)
	setupEmployeeRoutes(protected.Group("/employees"), employeeHandler)
}

// setupLoanRoutes configures loan routes. Fixed paths are registered before /:id.
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler, stats *handlers.StatisticsHandler) {
	// Any authenticated user; employees are limited to their own records
	router.Post("/preview", handler.Preview)
	router.Post("/", handler.Create)
	router.Get("/employee/:id", handler.ByEmployee)
	router.Get("/employee/:id/outstanding-balance", handler.OutstandingBalance)
	router.Get("/employee/:id/portfolio", handler.Portfolio)
	router.Get("/employee/:id/eligibility", handler.Eligibility)

	officer := middleware.OfficerOrAdmin()
	router.Get("/", officer, handler.List)
	router.Get("/statistics", officer, stats.GetStatistics)

	router.Get("/:id", handler.Get)
	router.Get("/:id/schedule", handler.Schedule)
	router.Get("/:id/history", officer, handler.History)

	// Officer/Admin routes
	router.Put("/:id", officer, handler.Update)
	router.Post("/:id/approve", officer, handler.Approve)
	router.Post("/:id/reject", officer, handler.Reject)
	router.Delete("/:id", officer, handler.Cancel)
}

// setupRepaymentRoutes configures repayment routes (Officer/Admin)
func setupRepaymentRoutes(router fiber.Router, handler *handlers.RepaymentHandler) {
	router.Post("/:scheduleId/pay", middleware.OfficerOrAdmin(), middleware.StrictRateLimiter(), handler.Pay)
}

// setupEmployeeRoutes configures employee directory routes
func setupEmployeeRoutes(router fiber.Router, handler *handlers.EmployeeHandler) {
	router.Get("/", middleware.OfficerOrAdmin(), handler.Search)
	router.Get("/:id", handler.Get)
}
