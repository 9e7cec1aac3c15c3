package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"securevault/internal/alert"
	"securevault/internal/config"
	"securevault/internal/middleware"
	"securevault/internal/store"
)

type Handler struct {
	cfg         config.Config
	db          store.DB
	credentials CredentialService
	sessions    SessionService
	ledger      LedgerService
	audit       AuditService
	uploads     UploadStore
	alerts      *alert.Hub
}

func New(cfg config.Config, database store.DB, credentials CredentialService, sessions SessionService, ledger LedgerService, audit AuditService, uploads UploadStore, alerts *alert.Hub) *Handler {
	return &Handler{
		cfg:         cfg,
		db:          database,
		credentials: credentials,
		sessions:    sessions,
		ledger:      ledger,
		audit:       audit,
		uploads:     uploads,
		alerts:      alerts,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authOnly := middleware.Auth(h.sessions)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(authOnly).Get("/me", h.Me)
		r.With(authOnly).Post("/password", h.ChangePassword)
	})
	router.Route("/wallet", func(r chi.Router) {
		r.Use(authOnly)
		r.Get("/balance", h.GetBalance)
		r.Post("/deposit", h.Deposit)
		r.Post("/transfer", h.Transfer)
		r.Get("/history", h.GetHistory)
		r.Get("/self-check", h.SelfCheck)
	})
	router.With(authOnly).Post("/files/upload", h.UploadFile)
	router.With(authOnly).Get("/files", h.ListFiles)
	router.With(authOnly).Get("/audit", h.ListAuditLog)
	router.Get("/ws/alerts", h.WSAlerts)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) WSAlerts(w http.ResponseWriter, r *http.Request) {
	alert.ServeWS(w, r, h.alerts)
}
