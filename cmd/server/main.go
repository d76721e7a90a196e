package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/expense-extractor/api"
	"github.com/facturaIA/expense-extractor/internal/db"
	"github.com/facturaIA/expense-extractor/internal/models"
	"github.com/facturaIA/expense-extractor/internal/pdftext"
	"github.com/facturaIA/expense-extractor/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, config, logger)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Every resource it
// opens is released before it returns.
func run(ctx context.Context, config *models.Config, logger zerolog.Logger) error {
	text, err := pdftext.New(config.Extraction.TextEngine)
	if err != nil {
		return fmt.Errorf("configuring text extraction: %w", err)
	}

	// Postgres when configured, embedded bbolt otherwise
	store, err := openStore(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("opening extraction store: %w", err)
	}
	defer store.Close()

	// Initialize MinIO storage
	err = storage.Init(ctx, storage.Config{
		Endpoint:  config.Storage.Endpoint,
		AccessKey: config.Storage.AccessKey,
		SecretKey: config.Storage.SecretKey,
		Bucket:    config.Storage.Bucket,
		UseSSL:    config.Storage.UseSSL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("MinIO storage not available, PDFs will not be stored")
	}

	// Create API handler
	handler := api.NewHandler(config, store, text, logger)
	router := handler.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("version", api.Version).
		Str("text_engine", config.Extraction.TextEngine).
		Bool("database", db.GetPool() != nil).
		Bool("storage", storage.Available()).
		Msg("Starting expense extraction service")
	log.Info().Msgf("  POST   http://%s/api/expenses/extract          - Extract fields from a PDF", addr)
	log.Info().Msgf("  POST   http://%s/api/parse                     - Parse plain text", addr)
	log.Info().Msgf("  GET    http://%s/api/expenses/{id}/extraction  - Get stored extraction", addr)
	log.Info().Msgf("  PUT    http://%s/api/expenses/{id}/extraction  - Replace stored extraction", addr)
	log.Info().Msgf("  DELETE http://%s/api/expenses/{id}/extraction  - Delete stored extraction", addr)
	log.Info().Msgf("  GET    http://%s/health                        - Health check", addr)

	return serve(ctx, server)
}

// serve runs server until ctx is cancelled, then shuts it down. A listener
// failure is returned instead of ending the process.
func serve(ctx context.Context, server *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listening on %s: %w", server.Addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	// A missing file leaves everything to defaults and the environment
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if engine := os.Getenv("TEXT_ENGINE"); engine != "" {
		config.Extraction.TextEngine = engine
	}
	if mb := os.Getenv("MAX_UPLOAD_MB"); mb != "" {
		fmt.Sscanf(mb, "%d", &config.Extraction.MaxUploadMB)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}
	if path := os.Getenv("BOLT_PATH"); path != "" {
		config.Database.BoltPath = path
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		config.Storage.Endpoint = endpoint
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		config.Storage.AccessKey = accessKey
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		config.Storage.SecretKey = secretKey
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if useSSL := os.Getenv("MINIO_USE_SSL"); useSSL != "" {
		config.Storage.UseSSL = useSSL == "true"
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Log.Format = format
	}

	config.Defaults()
	return &config, nil
}

// newLogger builds the service logger; "console" gets human-readable
// output, anything else JSON lines
func newLogger(cfg models.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func openStore(ctx context.Context, cfg models.DatabaseConfig) (db.Store, error) {
	err := db.Init(ctx, cfg.URL)
	if err == nil {
		store, err := db.NewPostgresStore(ctx, db.GetPool())
		if err == nil {
			return store, nil
		}
		log.Warn().Err(err).Msg("Failed to prepare Postgres store")
		db.Close()
	} else if errors.Is(err, db.ErrNoDatabase) {
		log.Info().Msg("No database configured")
	} else {
		log.Warn().Err(err).Msg("Database not available")
	}

	if dir := filepath.Dir(cfg.BoltPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	log.Info().Str("path", cfg.BoltPath).Msg("Using embedded extraction store")
	return db.NewBoltStore(cfg.BoltPath)
}
