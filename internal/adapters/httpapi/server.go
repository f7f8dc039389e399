// Package httpapi exposes form editing sessions and the form catalog over HTTP
// for a presentation layer.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/formbuilder/internal/app"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/ctxutil"
	"github.com/example/formbuilder/internal/ports/primary"
)

// Server holds the services behind the HTTP routes.
type Server struct {
	sessions *app.SessionManager
	catalog  primary.FormCatalog
	registry *fieldtype.Registry
	logger   *slog.Logger
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(sessions *app.SessionManager, catalog primary.FormCatalog, registry *fieldtype.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		sessions: sessions,
		catalog:  catalog,
		registry: registry,
		logger:   logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(editorIdentity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/types", s.listTypes)

		r.Route("/forms", func(r chi.Router) {
			r.Get("/", s.listForms)
			r.Post("/", s.createForm)
			r.Delete("/{formID}", s.deleteForm)
			r.Post("/{formID}/duplicate", s.duplicateForm)
			r.Get("/{formID}/history", s.formHistory)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.openSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.closeSession)
				r.Post("/reload", s.reload)
				r.Put("/language", s.setLanguage)
				r.Get("/languages", s.siteLanguages)
				r.Patch("/form", s.updateForm)
				r.Post("/save", s.save)

				r.Post("/steps", s.addStep)
				r.Put("/steps/order", s.reorderSteps)
				r.Route("/steps/{stepID}", func(r chi.Router) {
					r.Patch("/", s.updateStep)
					r.Delete("/", s.removeStep)
					r.Post("/fields", s.addField)
					r.Put("/fields/order", s.reorderFields)
					r.Route("/fields/{fieldID}", func(r chi.Router) {
						r.Patch("/", s.updateField)
						r.Delete("/", s.removeField)
						r.Post("/children", s.addNestedField)
						r.Post("/options", s.addOption)
						r.Post("/duplicate", s.duplicateField)
					})
				})
			})
		})
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown failed", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// editorIdentity puts the X-Actor header into the context as the editing user.
func editorIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get("X-Actor"); actor != "" {
			r = r.WithContext(ctxutil.WithEditor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.Types())
}
