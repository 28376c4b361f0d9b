package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/service"
	"github.com/tradegate/invoice-gate/internal/config"
	"github.com/tradegate/invoice-gate/internal/domain/rules"
	"github.com/tradegate/invoice-gate/internal/domain/workflow"
	"github.com/tradegate/invoice-gate/internal/infrastructure/notification"
	"github.com/tradegate/invoice-gate/internal/infrastructure/persistence/repository"
	httpserver "github.com/tradegate/invoice-gate/internal/interfaces/http"
	"github.com/tradegate/invoice-gate/pkg/database"
	"github.com/tradegate/invoice-gate/pkg/utils"
)

func main() {
	// Local .env overrides, ignored when the file is absent
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Invoice Gate",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	vendorRepo := repository.NewVendorScoreRepository(db.DB, logger)
	priceRepo := repository.NewPriceHistoryRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	txManager := repository.NewTxManager(db)

	// Initialize notification transport
	notifier := notification.NewSMTPNotifier(notification.Config{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		SenderEmail: cfg.Email.SenderEmail,
		SenderPass:  cfg.Email.SenderPass,
		BaseURL:     cfg.Email.BaseURL,
		Enabled:     cfg.Email.Enabled,
	}, logger)

	serviceLogger := utils.NewServiceLogger(logger)

	// Initialize application services
	roster := service.Roster{
		workflow.LevelFrontLine:  {Name: cfg.Approval.FrontLine.Name, Email: cfg.Approval.FrontLine.Email},
		workflow.LevelFinance:    {Name: cfg.Approval.Finance.Name, Email: cfg.Approval.Finance.Email},
		workflow.LevelCompliance: {Name: cfg.Approval.Compliance.Name, Email: cfg.Approval.Compliance.Email},
	}

	ruleSet := rules.NewDefaultRuleSet()
	fraudService := service.NewFraudService(invoiceRepo, vendorRepo, priceRepo, serviceLogger)
	approvalService := service.NewApprovalService(
		approvalRepo,
		notifier,
		workflow.DefaultLevels(),
		roster,
		serviceLogger,
	)
	decisionService := service.NewDecisionService(
		ruleSet,
		fraudService,
		approvalService,
		invoiceRepo,
		vendorRepo,
		priceRepo,
		txManager,
		serviceLogger,
	)
	exportService := service.NewExportService(invoiceRepo, serviceLogger)

	// Initialize HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		decisionService,
		approvalService,
		exportService,
		serviceLogger,
	)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
