package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"docparse/constants"
	"docparse/internal/async"
	"docparse/internal/common"
	"docparse/internal/entity"
	"docparse/internal/extract"
	"docparse/internal/ocr"
	"docparse/internal/parser"
	"docparse/internal/repository"
	"docparse/internal/server"
	"docparse/internal/template"
	"docparse/internal/validate"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open template store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	store := template.NewStore(kv, logger)
	validator := validate.New(validate.Config{
		DatePastYears:  cfg.Parsing.DatePastYears,
		DateFutureDays: cfg.Parsing.DateFutureDays,
	})
	lexical := extract.NewLexical(logger)
	recognizer := extract.NewRecognizer(logger)

	p := parser.New(store, lexical, recognizer, validator, parser.Config{
		BasePadding:  cfg.Parsing.BasePadding,
		PaddingScale: cfg.Parsing.PaddingScale,
	}, logger)

	learner := template.NewLearner(store, validator, template.LearnerConfig{
		MinMatchQuality: cfg.Parsing.MinMatchQuality,
		OutlierDistance: cfg.Parsing.OutlierDistance,
	}, logger)

	queue := async.NewLearnQueue(learner, logger,
		async.WithWorkers(cfg.Learn.Workers),
		async.WithQueueSize(cfg.Learn.QueueSize),
		async.WithProcessTimeout(cfg.Learn.ProcessTimeout),
	)

	var source ocr.FragmentSource
	if langs := os.Getenv("TESSERACT_LANGS"); langs != "" {
		source = ocr.NewTesseractSource(strings.Split(langs, ","), logger)
		logger.Info("local OCR engine enabled", "languages", langs)
	}

	owner := entity.OwnerIdentity{
		RegistrationID: cfg.Parsing.OwnerRegistrationID,
		TaxID:          cfg.Parsing.OwnerTaxID,
	}
	srv := server.New(p, queue, store, source, owner, logger)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.KV, error) {
	switch constants.StoreBackend(cfg.Store.Backend) {
	case constants.BackendMemory:
		return repository.NewMemoryKV(), nil
	case constants.BackendSQLite:
		return repository.OpenSQLite(ctx, cfg.Store.SQLitePath, logger)
	case constants.BackendPostgres:
		pg, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
			DSN:             cfg.Store.DSN,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
			DialTimeout:     cfg.Store.DialTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.HealthCheck(ctx, cfg.Store.DialTimeout); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Info("db health ok")
		return pg, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown store backend "+cfg.Store.Backend, common.ErrInvalidInput)
	}
}
