package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/assembler"
	"github.com/meramerchant/invoiceflow/internal/config"
	"github.com/meramerchant/invoiceflow/internal/export"
	"github.com/meramerchant/invoiceflow/internal/mailbox"
	"github.com/meramerchant/invoiceflow/internal/normalize"
	"github.com/meramerchant/invoiceflow/internal/pdftext"
	"github.com/meramerchant/invoiceflow/internal/pipeline"
	"github.com/meramerchant/invoiceflow/internal/repository"
	"github.com/meramerchant/invoiceflow/internal/server"
	"github.com/meramerchant/invoiceflow/internal/snapshot"
	"github.com/meramerchant/invoiceflow/internal/worker"
	"github.com/meramerchant/invoiceflow/pkg/database"
	"github.com/meramerchant/invoiceflow/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	_ = gotenv.Load()

	// Missing or invalid configuration aborts before any document is
	// touched.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

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

	logger.Info("Starting invoice import service",
		zap.Int("port", cfg.Server.Port),
		zap.String("input_dir", cfg.Importer.InputDir))

	db, err := database.New(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	for _, dir := range []string{cfg.Importer.InputDir, cfg.Importer.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
	}

	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	normalizer := normalize.NewNormalizer(logger)
	asm := assembler.NewAssembler(normalizer, logger)
	snapshots := snapshot.NewWriter(cfg.Importer.OutputDir, logger)
	processor := pipeline.NewProcessor(pdftext.NewFitzLoader(), asm, snapshots, invoiceRepo, logger)
	exporter := export.NewService(invoiceRepo, logger)

	var fetcher *mailbox.Fetcher
	if cfg.Mailbox.Enabled {
		fetcher = mailbox.NewFetcher(mailbox.Config{
			Address:  cfg.Mailbox.Address,
			Username: cfg.Mailbox.Username,
			Password: cfg.Mailbox.Password,
			Folder:   cfg.Mailbox.Folder,
		}, logger)
	}

	// Periodic re-runs are idempotent: the deduplicating writer drops
	// invoices it has already stored.
	scheduler := worker.NewScheduler("invoice-import", cfg.Importer.Interval,
		func(ctx context.Context) error {
			if fetcher != nil {
				if _, err := fetcher.FetchAttachments(cfg.Importer.InputDir); err != nil {
					logger.Error("Mailbox retrieval failed", zap.Error(err))
				}
			}
			_, err := processor.Run(ctx, cfg.Importer.InputDir)
			return err
		}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	httpServer := server.New(processor, invoiceRepo, exporter, fetcher, cfg.Importer.InputDir, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      httpServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
