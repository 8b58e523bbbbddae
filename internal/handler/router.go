package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	sessionHandler "github.com/zhouzirui/chatkit-broker/internal/handler/session"
	middlewarePkg "github.com/zhouzirui/chatkit-broker/internal/middleware"
	sessionService "github.com/zhouzirui/chatkit-broker/internal/service/session"
	"github.com/zhouzirui/chatkit-broker/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessionSvc *sessionService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessions := sessionHandler.New(sessionSvc)

	r.Route("/api", func(api chi.Router) {
		sessions.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
