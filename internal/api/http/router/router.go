package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/civicvoice/civicvoice-server/internal/api/http/handler"
	"github.com/civicvoice/civicvoice-server/internal/api/http/middleware"
	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
	"github.com/civicvoice/civicvoice-server/internal/service"
)

// Router assembles the HTTP surface: health, code issuance, the admin
// survey API and the WebSocket conversation endpoint.
type Router struct {
	verificationService *service.Verification
	surveys             model.SurveyStore
	responses           model.ResponseStore
	tokenManager        model.TokenManager
	adminSecret         string
	conversations       http.Handler
	logger              *logger.Logger
}

// New creates a new Router instance.
func New(
	verificationService *service.Verification,
	surveys model.SurveyStore,
	responses model.ResponseStore,
	tokenManager model.TokenManager,
	adminSecret string,
	conversations http.Handler,
	logger *logger.Logger,
) *Router {
	return &Router{
		verificationService: verificationService,
		surveys:             surveys,
		responses:           responses,
		tokenManager:        tokenManager,
		adminSecret:         adminSecret,
		conversations:       conversations,
		logger:              logger,
	}
}

// Register builds the chi router with all middleware and routes.
func (r *Router) Register() chi.Router {
	logging := middleware.NewLogging(r.logger)
	auth := middleware.NewAuth(r.tokenManager, r.logger)

	verificationHandler := handler.NewVerification(r.verificationService, r.logger)
	adminHandler := handler.NewAdmin(r.surveys, r.responses, r.tokenManager, r.adminSecret, r.logger)

	mux := chi.NewRouter()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(logging.Handle)
	mux.Use(chimiddleware.Recoverer)

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Head("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Conversations hold the connection open; no request timeout applies.
	mux.Get("/ws", r.conversations.ServeHTTP)

	mux.Group(func(api chi.Router) {
		api.Use(chimiddleware.Timeout(60 * time.Second))

		api.Post("/api/verification-codes", verificationHandler.RequestCode)
		api.Post("/api/admin/login", adminHandler.Login)

		api.Group(func(admin chi.Router) {
			admin.Use(auth.Handle)

			admin.Post("/api/admin/surveys", adminHandler.CreateSurvey)
			admin.Get("/api/admin/surveys", adminHandler.ListSurveys)
			admin.Get("/api/admin/surveys/{id}", adminHandler.GetSurvey)
			admin.Post("/api/admin/surveys/{id}/deactivate", adminHandler.DeactivateSurvey)
			admin.Get("/api/admin/surveys/{id}/responses", adminHandler.ListResponses)
		})
	})

	return mux
}
