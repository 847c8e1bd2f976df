package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/simplebank/simplebank/internal/auth"
	"github.com/simplebank/simplebank/internal/config"
	"github.com/simplebank/simplebank/internal/middleware"
	"github.com/simplebank/simplebank/internal/server"
	"github.com/simplebank/simplebank/internal/service"
	"github.com/simplebank/simplebank/internal/storage/sqlite"
	"github.com/simplebank/simplebank/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		slog.Warn("Using development JWT secret; set JWT_SECRET in production")
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Wire auth and services
	authenticator := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(authenticator, jwtManager, slog.Default())
	txSvc := service.NewTransactionService(store)

	gateway := server.New(authSvc, txSvc, middleware.RequireAuth(jwtManager), server.Options{
		AllowedOrigins: cfg.CORSOrigins,
		StaticDir:      cfg.StaticPath,
		ImportMaxBytes: cfg.ImportMaxBytes,
	})

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(gateway, &http2.Server{})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Server starting", "address", srv.Addr, "url", "http://localhost"+srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
