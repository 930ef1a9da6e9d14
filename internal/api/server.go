// Package api exposes the treasury over HTTP as a JSON API under
// /api/v1.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tesoreria/internal/alert"
	"tesoreria/internal/payroll"
	"tesoreria/internal/ratelimit"
	"tesoreria/internal/recur"
	"tesoreria/internal/store"
)

// Server wires the store and the domain services into an HTTP handler.
type Server struct {
	store     *store.Store
	wizard    *payroll.Wizard
	generator *recur.Generator
	scanner   *alert.Scanner
	log       *zap.Logger
}

// Options carries the optional pieces of the server.
type Options struct {
	// Token, when set, is required as a bearer token on every request
	// under /api/v1.
	Token string
	// Limiter, when set, throttles requests per client.
	Limiter *ratelimit.Store
	// Stats receives rate-limit decisions; only used with Limiter.
	Stats ratelimit.StatsStore
}

func NewServer(st *store.Store, scanner *alert.Scanner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:     st,
		wizard:    payroll.NewWizard(st, log),
		generator: recur.NewGenerator(st, log),
		scanner:   scanner,
		log:       log,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(ratelimit.Middleware(ratelimit.Options{
				Store:      opts.Limiter,
				Stats:      opts.Stats,
				KeyHeader:  "X-Api-Key",
				RetryAfter: time.Second,
			}))
		}
		if opts.Token != "" {
			r.Use(bearerAuth(opts.Token))
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Get("/{id}", s.getAccount)
			r.Put("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
		})
		r.Route("/credit-lines", func(r chi.Router) {
			r.Get("/", s.listCreditLines)
			r.Post("/", s.createCreditLine)
			r.Get("/{id}", s.getCreditLine)
			r.Put("/{id}", s.updateCreditLine)
			r.Delete("/{id}", s.deleteCreditLine)
		})
		r.Route("/credit-cards", func(r chi.Router) {
			r.Get("/", s.listCreditCards)
			r.Post("/", s.createCreditCard)
			r.Get("/{id}", s.getCreditCard)
			r.Put("/{id}", s.updateCreditCard)
			r.Delete("/{id}", s.deleteCreditCard)
		})
		r.Route("/loans", func(r chi.Router) {
			r.Get("/", s.listLoans)
			r.Post("/", s.createLoan)
			r.Get("/{id}", s.getLoan)
			r.Put("/{id}", s.updateLoan)
			r.Delete("/{id}", s.deleteLoan)
		})
		r.Route("/third-parties", func(r chi.Router) {
			r.Get("/", s.listThirdParties)
			r.Post("/", s.createThirdParty)
			r.Get("/{id}", s.getThirdParty)
			r.Put("/{id}", s.updateThirdParty)
			r.Delete("/{id}", s.deleteThirdParty)
		})
		r.Route("/payment-orders", func(r chi.Router) {
			r.Get("/", s.listOrders)
			r.Post("/", s.createOrder)
			r.Get("/{id}", s.getOrder)
			r.Put("/{id}", s.updateOrder)
			r.Delete("/{id}", s.deleteOrder)
			r.Post("/{id}/confirm", s.confirmOrder)
			r.Post("/{id}/reject", s.rejectOrder)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.listBudgets)
			r.Post("/", s.createBudget)
			r.Get("/{id}", s.getBudget)
			r.Put("/{id}", s.updateBudget)
			r.Delete("/{id}", s.deleteBudget)
		})
		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.listRecurring)
			r.Post("/", s.createRecurring)
			r.Get("/{id}", s.getRecurring)
			r.Put("/{id}", s.updateRecurring)
			r.Get("/{id}/versions", s.listVersions)
			r.Post("/{id}/versions", s.addVersion)
			r.Post("/generate", s.generateInstances)
			r.Get("/instances", s.listInstances)
			r.Post("/instances/{id}/confirm", s.confirmInstance)
			r.Post("/instances/{id}/skip", s.skipInstance)
		})
		r.Route("/payroll-batches", func(r chi.Router) {
			r.Get("/", s.listBatches)
			r.Post("/", s.createBatch)
			r.Get("/{id}", s.getBatch)
			r.Post("/{id}/advance", s.advanceBatch)
			r.Post("/{id}/back", s.backBatch)
			r.Post("/{id}/cancel", s.cancelBatch)
			r.Post("/{id}/submit", s.submitBatch)
			r.Get("/{id}/lines", s.listBatchLines)
			r.Put("/{id}/lines", s.setBatchLine)
			r.Delete("/{id}/lines/{employeeID}", s.removeBatchLine)
		})
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.listAlerts)
			r.Post("/scan", s.scanAlerts)
			r.Post("/{id}/ack", s.ackAlert)
		})
		r.Get("/reports/position", s.positionReport)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
