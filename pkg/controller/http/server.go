package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/materiality/pkg/usecase"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
)

// maxBodySize limits request bodies accepted by the API
const maxBodySize = 1 << 20

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	maxBody int64
}

type Options func(*Server)

// WithMaxBodySize overrides the request body limit in bytes
func WithMaxBodySize(n int64) Options {
	return func(s *Server) {
		s.maxBody = n
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		uc:      uc,
		maxBody: maxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Get("/industries", s.listIndustries)
		r.Get("/topics", s.listTopics)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.openSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.closeSession)
				r.Put("/scope", s.setScope)
				r.Put("/config", s.updateConfig)
				r.Get("/dashboard", s.dashboard)
				r.Post("/save", s.saveSession)
				r.Post("/finalize", s.finalizeSession)

				r.Route("/records/{topicID}", func(r chi.Router) {
					r.Patch("/", s.patchRecord)
					r.Put("/materiality", s.setMateriality)
					r.Post("/narrative", s.suggestNarrative)
				})
			})
		})

		r.Route("/assessments", func(r chi.Router) {
			r.Get("/", s.listAssessments)
			r.Route("/{assessmentID}", func(r chi.Router) {
				r.Get("/", s.getAssessment)
				r.Post("/reassessment", s.requestReassessment)
				r.Get("/report.{format}", s.renderReport)
				r.Post("/report.{format}/upload", s.uploadReport)
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte("ok"))
}
