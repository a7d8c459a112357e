// Package server exposes the synchronised state over a small read-mostly
// HTTP API: session health, derived views, the KNX and error logs, actions
// and the schedule.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/actions"
	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
	"github.com/anicoll/fleetsync/pkg/api"
)

type Status interface {
	Connected() bool
	Loaded() bool
	LoggedIn() bool
}

type Graph interface {
	Refs() []model.Ref
	Entity(ref model.Ref) (model.Entity, bool)
	KNXEvents() []model.KNXEvent
	Errors() []model.ErrorRecord
}

type Views interface {
	Get(ref model.Ref) (views.View, bool)
}

type Hydrator interface {
	Observe(ref model.Ref) bool
	EnsureHydrated(ctx context.Context, ref model.Ref) (model.Entity, error)
}

type Actions interface {
	List(ref model.Ref) ([]actions.Action, error)
	Run(ctx context.Context, ref model.Ref, name model.Capability) error
}

type Schedules interface {
	List() []model.ScheduledEvent
	Get(id string) (model.ScheduledEvent, bool)
	Commit(ctx context.Context, ev model.ScheduledEvent) (model.ScheduledEvent, error)
	Remove(ctx context.Context, id string) error
	Loading() bool
}

type Refresher interface {
	Refresh(ctx context.Context) error
	Loading() bool
}

type Session interface {
	Token() string
}

// History reads the persisted journal. It is optional.
type History interface {
	KNXEvents(ctx context.Context, since time.Time, limit int) ([]model.KNXEvent, error)
	Errors(ctx context.Context, since time.Time, limit int) ([]model.ErrorRecord, error)
}

type Deps struct {
	Status    Status
	Graph     Graph
	Views     Views
	Hydrator  Hydrator
	Actions   Actions
	Schedules Schedules
	Refresher Refresher
	Session   Session
	History   History
}

var _ api.ServerInterface = (*server)(nil)

type server struct {
	Deps
	logger *zap.Logger
}

func New(deps Deps) *server {
	return &server{Deps: deps, logger: zap.L()}
}

// Handler builds the router from the generated API routes. Every request is
// checked against the embedded API document before its handler runs.
func (s *server) Handler() (http.Handler, error) {
	doc, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("load api document: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	return api.HandlerWithOptions(s, api.ChiServerOptions{
		BaseRouter:  r,
		Middlewares: []api.MiddlewareFunc{RequestValidator(doc)},
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			handleError(w, http.StatusBadRequest, err)
		},
	}), nil
}

// Serve runs the API on addr until ctx is done.
func (s *server) Serve(ctx context.Context, addr string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler: handler,
		Addr:    addr,
		// Hydrating reads may wait for a pushed status.
		WriteTimeout: 45 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("serving api", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
