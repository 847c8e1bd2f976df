// Package server is the HTTP gateway: it routes requests to the services,
// enforces the bearer token on transaction routes, and shapes JSON
// responses and error bodies.
package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/simplebank/simplebank/internal/metrics"
	"github.com/simplebank/simplebank/internal/middleware"
	"github.com/simplebank/simplebank/internal/service"
)

// ServiceName appears in the health endpoint payload.
const ServiceName = "SimpleBank"

// Options configures the gateway.
type Options struct {
	// AllowedOrigins is the CORS allow-list; "*" allows any origin.
	AllowedOrigins []string

	// StaticDir, when set and existing, is served for non-API routes with
	// an index.html fallback (pre-built SPA bundle).
	StaticDir string

	// ImportMaxBytes caps the CSV import request body.
	ImportMaxBytes int64
}

// Server routes HTTP requests to the auth and transaction services.
type Server struct {
	authSvc        *service.AuthService
	txSvc          *service.TransactionService
	importMaxBytes int64
	handler        http.Handler
}

// New builds the gateway with all routes and middleware wired.
// requireAuth guards every /api/transactions route.
func New(authSvc *service.AuthService, txSvc *service.TransactionService, requireAuth func(http.Handler) http.Handler, opts Options) *Server {
	s := &Server{
		authSvc:        authSvc,
		txSvc:          txSvc,
		importMaxBytes: opts.ImportMaxBytes,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth routes are unauthenticated by construction.
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// Transaction routes, all bearer-token protected. Literal segments
	// (summary, export, import) take precedence over the {id} wildcard.
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/transactions", s.handleListTransactions)
	protected.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	protected.HandleFunc("GET /api/transactions/summary", s.handleSummary)
	protected.HandleFunc("GET /api/transactions/export/csv", s.handleExportCSV)
	protected.HandleFunc("POST /api/transactions/import", s.handleImportCSV)
	protected.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	protected.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	protected.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.Handle("/api/transactions", requireAuth(protected))
	mux.Handle("/api/transactions/", requireAuth(protected))

	// Optionally serve a pre-built SPA bundle for everything else.
	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err == nil {
			mux.Handle("/", spaHandler(opts.StaticDir))
		}
	}

	s.handler = middleware.Logging(
		metrics.Instrument(
			middleware.CORS(opts.AllowedOrigins)(mux),
		),
	)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// spaHandler serves files from dir, falling back to index.html for unknown
// paths so client-side routing keeps working.
func spaHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}
