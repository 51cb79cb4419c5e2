/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*       Chart of accounts
  /api/documents/*      Document drafts and lifecycle transitions
  /api/ledger           Raw ledger queries
  /api/reports/*        Financial and stock reports

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - commands/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
		})

		// Documents and lifecycle
		r.Route("/documents/{kind}", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.CreateDocument)
			r.Get("/{name}", h.GetDocument)
			r.Delete("/{name}", h.DeleteDocument)
			r.Post("/{name}/submit", h.SubmitDocument)
			r.Post("/{name}/cancel", h.CancelDocument)
		})

		// Ledger queries
		r.Get("/ledger", h.ListLedgerEntries)

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/profit-and-loss", h.ProfitAndLoss)
			r.Get("/trial-balance", h.TrialBalance)
			r.Get("/general-ledger", h.GeneralLedger)
			r.Get("/stock-balance", h.StockBalance)
		})
	})

	return r
}
