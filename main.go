package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/api"
	"github.com/lucacel82/luccacell/internal/auth"
	"github.com/lucacel82/luccacell/internal/config"
	"github.com/lucacel82/luccacell/internal/database"
	"github.com/lucacel82/luccacell/internal/logger"
	"github.com/lucacel82/luccacell/internal/metrics"
	"github.com/lucacel82/luccacell/internal/printing"
	"github.com/lucacel82/luccacell/internal/products"
	"github.com/lucacel82/luccacell/internal/report"
	"github.com/lucacel82/luccacell/internal/sales"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for the given owner id and exit")
	flag.Parse()

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Expiration)
	if *issueFor != "" {
		token, expires, err := tokens.Issue(*issueFor)
		if err != nil {
			panic(fmt.Errorf("failed to issue token: %w", err))
		}
		fmt.Printf("%s\n# expires %s\n", token, expires.Format(time.RFC3339))
		return
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	log.Info("Starting sales service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if err := run(cfg, tokens, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, tokens *auth.TokenService, log *zap.Logger) error {
	loc, err := cfg.Report.Location()
	if err != nil {
		return err
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("failed to close resource", zap.Error(err))
			}
		}
	}()

	var (
		salesStorage   sales.Storage
		productStorage products.Storage
	)
	if cfg.UsesDatabase() {
		db, err := database.Open(context.Background(), cfg.Database)
		if err != nil {
			return err
		}
		closers = append(closers, db)
		log.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db.DB, log)
			if err != nil {
				return err
			}
			if err := migrator.Up(); err != nil {
				return err
			}
		}
		salesStorage = sales.NewPGStorage(db)
		productStorage = products.NewPGStorage(db)
	} else {
		log.Warn("No database configured, using in-memory storage")
		salesStorage = sales.NewLocalStorage()
		productStorage = products.NewLocalStorage()
	}

	settingsStore, err := printing.OpenPebbleSettingsStore(cfg.Settings.Dir)
	if err != nil {
		return err
	}
	closers = append(closers, settingsStore)

	var pdf printing.PDFRenderer
	if cfg.Printing.PDFEnabled {
		renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
			RemoteURL: cfg.Printing.ChromeURL,
			Timeout:   cfg.Printing.RenderTimeout,
			NoSandbox: cfg.Printing.NoSandbox,
		}, log.Named("pdf"))
		closers = append(closers, renderer)
		pdf = renderer
	}

	registry := metrics.NewRegistry()
	salesService := sales.NewService(salesStorage, log.Named("sales"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := api.NewEngine(log, registry)

	api.InitRoutes(engine, api.Dependencies{
		Logger:   log,
		Tokens:   tokens,
		Sales:    salesService,
		Products: products.NewService(productStorage, log.Named("products")),
		Reports: report.NewAssembler(salesService, log.Named("report"),
			report.WithLocation(loc),
			report.WithTopN(cfg.Report.TopN),
			report.WithBoardLimit(cfg.Report.BoardLimit),
			report.WithObserver(registry),
		),
		Settings: printing.NewSettingsService(settingsStore, printing.DefaultSettings(cfg.Printing.StoreName), log.Named("settings")),
		PDF:      pdf,
		Metrics:  registry,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("error trying to start server: %w", err)
	case <-quit:
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}
