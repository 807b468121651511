package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"docwindow/internal/config"
	"docwindow/internal/dictionary"
	"docwindow/internal/handler"
	"docwindow/internal/middleware"
	"docwindow/internal/repository/postgres"
	"docwindow/internal/service"
	"docwindow/internal/window/sqlbind"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// maxLogFiles caps the rotated log files kept per LOG_DIR.
const maxLogFiles = 10

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, maxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"dictionary_dir", cfg.DictionaryDir,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Dictionary: window definitions compiled to entity descriptors
	dictProvider := dictionary.NewProvider(cfg.DictionaryDir, sqlbind.NoAccessRestriction())

	// Repositories
	documentsRepo := postgres.NewDocumentsRepository(pool, logger)
	txManager := postgres.NewTransactionManager(pool)

	// Services
	windowService := service.NewWindowService(dictProvider, documentsRepo, txManager, logger)

	// Handlers
	windowHandler := handler.NewWindowHandler(windowService, logger)
	dictHandler := handler.NewDictionaryHandler(dictProvider, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", windowHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Dictionary routes
	mux.HandleFunc("GET /api/dictionary/windows", dictHandler.ListWindows)
	mux.HandleFunc("GET /api/dictionary/windows/{windowId}", dictHandler.GetWindowLayout)
	mux.HandleFunc("POST /api/dictionary/windows/{windowId}/invalidate", dictHandler.InvalidateWindow)
	mux.HandleFunc("POST /api/dictionary/invalidate", dictHandler.InvalidateAll)

	// Window routes. The documents listing is a POST: filter payloads are
	// too structured for query strings.
	mux.HandleFunc("POST /api/window/{windowId}/documents", windowHandler.ListDocuments)
	mux.HandleFunc("GET /api/window/{windowId}/{documentId}", windowHandler.GetDocument)
	mux.HandleFunc("PATCH /api/window/{windowId}/{documentId}", windowHandler.UpdateDocument)
	mux.HandleFunc("GET /api/window/{windowId}/{documentId}/version", windowHandler.GetDocumentVersion)
	mux.HandleFunc("GET /api/window/{windowId}/{documentId}/{tabId}", windowHandler.ListTabRows)
	mux.HandleFunc("POST /api/window/{windowId}/{documentId}/{tabId}", windowHandler.CreateTabRow)
	mux.HandleFunc("DELETE /api/window/{windowId}/{documentId}/{tabId}", windowHandler.DeleteTabRows)
	mux.HandleFunc("GET /api/window/{windowId}/{documentId}/{tabId}/{rowId}", windowHandler.GetTabRow)
	mux.HandleFunc("PATCH /api/window/{windowId}/{documentId}/{tabId}/{rowId}", windowHandler.UpdateTabRow)

	// Build middleware chain (applied in reverse order, they wrap each other)
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)
	root = middleware.Metrics()(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
