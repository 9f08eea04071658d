package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/sendrec/disha/internal/catalog"
	"github.com/sendrec/disha/internal/database"
	"github.com/sendrec/disha/internal/discovery"
	"github.com/sendrec/disha/internal/filterstate"
	"github.com/sendrec/disha/internal/freshness"
	"github.com/sendrec/disha/internal/geoip"
	"github.com/sendrec/disha/internal/httputil"
	"github.com/sendrec/disha/internal/interactions"
	"github.com/sendrec/disha/internal/kvstore"
	"github.com/sendrec/disha/internal/pagination"
	"github.com/sendrec/disha/internal/preferences"
	"github.com/sendrec/disha/internal/ratelimit"
	"github.com/sendrec/disha/internal/server"
	"github.com/sendrec/disha/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	slog.SetDefault(newLogger(getEnv("LOG_FORMAT", "text"), getEnv("LOG_LEVEL", "info")))

	if err := run(); err != nil {
		slog.Error("disha: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := getEnv("PORT", "8080")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fetcher, err := newFetcher(ctx)
	if err != nil {
		return err
	}

	var pinger server.Pinger
	var kv kvstore.Store
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := database.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		slog.Info("database migrations applied")
		kv = kvstore.NewPostgres(db.Pool)
		pinger = db
	} else if path := os.Getenv("STATE_SQLITE"); path != "" {
		sqlite, err := kvstore.OpenSQLite(ctx, path)
		if err != nil {
			return fmt.Errorf("state database failed: %w", err)
		}
		defer func() { _ = sqlite.Close() }()
		kv = sqlite
		slog.Info("state stored in sqlite", "path", path)
	} else if getEnv("STATE_EPHEMERAL", "false") == "true" {
		kv = kvstore.NewMemory()
		slog.Warn("state kept in memory only, opens and filters are lost on restart")
	} else {
		path := getEnv("STATE_FILE", "disha-state.json")
		kv = kvstore.NewFile(path)
		slog.Info("state stored in file", "path", path)
	}

	geo, err := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		return fmt.Errorf("geoip initialization failed: %w", err)
	}
	defer func() { _ = geo.Close() }()

	clock := clockwork.NewRealClock()

	classifier := freshness.New(clock)
	classifier.SetMinNew(int(getEnvInt64("MIN_NEW", freshness.DefaultMinNew)))
	classifier.SetLookbackMonths(int(getEnvInt64("FRESHNESS_LOOKBACK_MONTHS", freshness.DefaultLookbackMonths)))

	loader := catalog.NewLoader(fetcher, classifier)
	loader.SetFetchTimeout(time.Duration(getEnvInt64("CATALOG_FETCH_TIMEOUT_SECONDS", 30)) * time.Second)
	tracker := interactions.NewTracker(ctx, kv)
	loader.SetInteractions(tracker)
	tracker.SetCache(loader)

	session := discovery.NewSession(
		loader,
		tracker,
		filterstate.New(kv),
		pagination.New(int(getEnvInt64("PAGE_SIZE", pagination.DefaultPageSize))),
	)

	var webFS fs.FS
	if dir := os.Getenv("WEB_DIR"); dir != "" {
		webFS = os.DirFS(dir)
		slog.Info("serving frontend", "dir", dir)
	} else {
		slog.Info("WEB_DIR not set, SPA serving disabled")
	}

	proxies, err := httputil.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	openLimiter := ratelimit.NewLimiter(clock, 5, 20)
	go openLimiter.Run(workerCtx)

	// Warm the catalog so the first page request does not wait on the fetch.
	go loader.Load(workerCtx)

	srv := server.New(server.Config{
		Session:               session,
		Preferences:           preferences.New(kv),
		Pinger:                pinger,
		GeoIP:                 geo,
		Clock:                 clock,
		WebFS:                 webFS,
		BaseURL:               getEnv("BASE_URL", "http://localhost:8080"),
		AllowedFrameAncestors: os.Getenv("ALLOWED_FRAME_ANCESTORS"),
		OpenLimiter:           openLimiter,
		TrustedProxies:        proxies,
		EnableDocs:            getEnv("API_DOCS_ENABLED", "false") == "true",
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("disha listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-shutdownCh:
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// newFetcher picks the catalog source: an HTTP URL, an S3 object or a local
// file, in that order of precedence.
func newFetcher(ctx context.Context) (catalog.Fetcher, error) {
	if url := os.Getenv("CATALOG_URL"); url != "" {
		slog.Info("catalog source", "url", url)
		return catalog.NewHTTPFetcher(url), nil
	}
	if bucket := os.Getenv("CATALOG_S3_BUCKET"); bucket != "" {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Bucket:    bucket,
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Region:    getEnv("S3_REGION", "eu-central-1"),
		})
		if err != nil {
			return nil, fmt.Errorf("storage initialization failed: %w", err)
		}
		key := getEnv("CATALOG_S3_KEY", "videos.json")
		slog.Info("catalog source", "bucket", bucket, "key", key)
		return catalog.NewObjectFetcher(store, key), nil
	}
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		slog.Info("catalog source", "file", path)
		return catalog.NewFileFetcher(path), nil
	}
	return nil, errors.New("one of CATALOG_URL, CATALOG_S3_BUCKET or CATALOG_FILE is required")
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
