package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/fleetsync/internal/pkg/actions"
	"github.com/anicoll/fleetsync/internal/pkg/api"
	"github.com/anicoll/fleetsync/internal/pkg/auth"
	"github.com/anicoll/fleetsync/internal/pkg/config"
	"github.com/anicoll/fleetsync/internal/pkg/graph"
	"github.com/anicoll/fleetsync/internal/pkg/hydrate"
	"github.com/anicoll/fleetsync/internal/pkg/metrics"
	"github.com/anicoll/fleetsync/internal/pkg/schedule"
	"github.com/anicoll/fleetsync/internal/pkg/views"
	"github.com/anicoll/fleetsync/pkg/sockets"
)

// Engine owns every piece of client state for one server session and wires
// the transport callbacks to them.
type Engine struct {
	Conn      *sockets.Conn
	Graph     *graph.Graph
	Views     *views.Engine
	Hydrator  *hydrate.Hydrator
	API       *api.Client
	Auth      *auth.Manager
	Router    *Router
	Schedules *schedule.Store
	Actions   *actions.Dispatcher

	logger    *zap.Logger
	refreshMu sync.Mutex
	loading   atomic.Bool
}

func NewEngine(cfg *config.Config, store auth.Store, logger *zap.Logger) *Engine {
	srv := cfg.ServerCfg
	e := &Engine{logger: logger}

	apiOpts := []api.Option{
		api.WithLogger(logger.Named("api")),
		api.WithTimeout(srv.RequestTimeout),
		api.WithToken(func() string { return e.Auth.Token() }),
	}
	connOpts := []sockets.Option{
		sockets.WithLogger(logger.Named("sockets")),
		sockets.OnMessage(func(ctx context.Context, raw json.RawMessage) { e.Router.OnMessage(ctx, raw) }),
		sockets.OnConnected(func(ctx context.Context) { e.Router.OnConnected(ctx) }),
		sockets.OnClose(func(ctx context.Context) { e.Router.OnClose(ctx) }),
	}
	if srv.BackoffMax > 0 {
		connOpts = append(connOpts, sockets.WithReconnectPolicy(sockets.Backoff{Base: time.Second, Max: srv.BackoffMax}))
	}
	if srv.Insecure {
		apiOpts = append(apiOpts, api.InsecureSkipVerify())
		connOpts = append(connOpts, sockets.InsecureSkipVerify())
	}

	e.Graph = graph.New(graph.WithLogger(logger.Named("graph")))
	e.Views = views.New(e.Graph)
	e.API = api.New(srv.APIBaseURL(), apiOpts...)
	e.Auth = auth.New(e.API,
		auth.WithLogger(logger.Named("auth")),
		auth.WithStore(store),
		auth.WithCredentials(srv.Username, srv.Password),
		auth.WithRefreshInterval(srv.TokenRefresh))
	e.Conn = sockets.New(srv.WebsocketURL(), connOpts...)
	e.Router = New(e.Graph, e.Conn,
		WithLogger(logger.Named("router")),
		WithShowErrors(cfg.ShowErrors),
		WithRefresher(e),
		WithSession(e.Auth))
	e.Hydrator = hydrate.New(e.Conn, e.Graph,
		hydrate.WithLogger(logger.Named("hydrate")),
		hydrate.WithTimeout(srv.HydrateTimeout))
	e.Schedules = schedule.New(e.API)
	e.Actions = actions.NewDispatcher(e.API, e.Graph, e.Views)

	e.Auth.Subscribe(e.Router.OnToken)
	return e
}

// Loading reports whether a snapshot load is in flight.
func (e *Engine) Loading() bool {
	return e.loading.Load()
}

// Refresh reloads the snapshot, replaces the graph and asks the server to
// push the status of every entity again.
func (e *Engine) Refresh(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	start := time.Now()
	gen := e.Router.Generation()
	e.loading.Store(true)
	snap, err := e.API.GetSnapshot(ctx)
	if err != nil {
		e.loading.Store(false)
		metrics.ObserveRefresh(metrics.ResultError, time.Since(start))
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	e.Graph.Replace(snap)
	e.Views.Prune()
	e.loading.Store(false)
	if !e.Router.MarkLoaded(gen) {
		e.logger.Warn("connection dropped during refresh, reloading on reconnect")
	}

	sent := e.Hydrator.FetchAll()
	metrics.ObserveRefresh(metrics.ResultSuccess, time.Since(start))
	e.logger.Info("snapshot loaded",
		zap.Int("devices", len(snap.Devices)),
		zap.Int("tags", len(snap.Tags)),
		zap.Int("locations", len(snap.Locations)),
		zap.Int("fetches", sent),
		zap.Duration("took", time.Since(start)))
	return nil
}

// RefreshKNX reloads the KNX event log.
func (e *Engine) RefreshKNX(ctx context.Context) error {
	events, err := e.API.GetKNXEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch knx events: %w", err)
	}
	e.Graph.SetKNXEvents(events)
	return nil
}

// Run establishes the session and keeps the engine synchronised until ctx
// ends. Initial load failures are logged; the next connect retries them.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Auth.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return e.Conn.Run(ctx)
	})
	eg.Go(func() error {
		return e.Auth.Run(ctx)
	})
	eg.Go(func() error {
		if err := e.Refresh(ctx); err != nil {
			e.logger.Error("initial refresh failed", zap.Error(err))
		}
		if err := e.RefreshKNX(ctx); err != nil {
			e.logger.Error("initial knx load failed", zap.Error(err))
		}
		if err := e.Schedules.Fetch(ctx); err != nil {
			e.logger.Error("initial schedule load failed", zap.Error(err))
		}
		return nil
	})

	err := eg.Wait()
	e.Router.Wait()
	return err
}
