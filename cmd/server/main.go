package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hr-loanengine/internal/adapters/clients"
	"hr-loanengine/internal/adapters/http/middleware"
	"hr-loanengine/internal/adapters/http/routes"
	"hr-loanengine/internal/adapters/messaging"
	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/adapters/persistence/repositories"
	"hr-loanengine/internal/config"
	"hr-loanengine/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	_ "hr-loanengine/docs" // Swagger docs
)

// @title Employee Loan API
// @version 1.0
// @description Employee loan amortization and lifecycle service

// @contact.name HR Systems
// @contact.email hr-systems@example.com

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := config.NewLogger(cfg)

	// Connect to database
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to auto migrate")
	}
	log.Info("database migration completed")

	// Employee directory: the HR service when configured, else the local table
	employees := repositories.NewEmployeeRepository(db)
	var directory services.EmployeeDirectory = employees
	var searcher services.EmployeeSearcher = employees
	if cfg.Directory.URL != "" {
		directory = clients.NewEmployeeClient(cfg.Directory.URL, cfg.Directory.Token, cfg.Directory.Timeout, log)
		searcher = nil
		log.WithField("url", cfg.Directory.URL).Info("using remote employee directory")
	} else if cfg.IsDev() {
		if err := config.NewSeeder(db, log).Run(); err != nil {
			log.WithError(err).Warn("failed to seed development data")
		}
	}

	// Event publisher: Kafka when brokers are configured, else the log
	var publisher services.EventPublisher = messaging.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("publishing loan events to kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	// Initialize services
	store := repositories.NewStore(db)
	notifyService := services.NewNotificationService(publisher, log)
	loanService := services.NewLoanService(store, directory, notifyService, cfg.Loan, log)
	repaymentService := services.NewRepaymentService(store, notifyService, log)
	statisticsService := services.NewStatisticsService(store)

	// Overdue reminders
	if cfg.Reminder.Enabled {
		reminder, err := services.NewReminderService(store, notifyService, log, cfg.Reminder.Cron)
		if err != nil {
			log.WithError(err).Fatal("failed to create reminder job")
		}
		reminder.Start()
		defer reminder.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Employee Loan API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, routes.Services{
		Loans:      loanService,
		Repayments: repaymentService,
		Statistics: statisticsService,
		Directory:  directory,
		Searcher:   searcher,
		Ping:       config.HealthCheck,
	}, cfg, log)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go gracefulShutdown(ctx, app, log)

	// Start server
	log.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).Info("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
}

// gracefulShutdown stops the server once ctx is cancelled by a signal
func gracefulShutdown(ctx context.Context, app *fiber.App, log *logrus.Logger) {
	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}
