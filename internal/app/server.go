package app

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/api/handlers"
	appMiddleware "github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/api/middlewares"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/config"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/ingest"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/session"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, ingestor *ingest.Service, sessions *session.Manager) *Server {
	docHandler := handlers.NewDocumentHandler(db, ingestor)
	sessHandler := handlers.NewSessionHandler(sessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * cfg.QueryTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))

			protected.Post("/documents", docHandler.Ingest)
			protected.Get("/documents", docHandler.List)
			protected.Get("/documents/{documentID}", docHandler.Get)
			protected.Delete("/documents/{documentID}", docHandler.Delete)
			protected.Post("/documents/{documentID}/reindex", docHandler.Reindex)

			protected.Post("/sessions", sessHandler.Create)
			protected.Get("/sessions/{sessionID}", sessHandler.Get)
			protected.Post("/sessions/{sessionID}/ask", sessHandler.Ask)
			protected.Patch("/sessions/{sessionID}/documents", sessHandler.UpdateDocuments)
			protected.Post("/sessions/{sessionID}/close", sessHandler.Close)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
