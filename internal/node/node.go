// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package node wires the governance engine to its storage, ledger and
// network listeners.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/blinklabs-io/supersig"
	"github.com/blinklabs-io/supersig/api"
	"github.com/blinklabs-io/supersig/database"
	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/internal/config"
	"github.com/blinklabs-io/supersig/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

type Node struct {
	cfg            *config.Config
	logger         *slog.Logger
	registry       *prometheus.Registry
	db             *database.Database
	ledger         *ledger.MemoryLedger
	engine         *supersig.Engine
	tracerProvider *sdktrace.TracerProvider
	eventSubs      map[event.EventType]event.EventSubscriberId
	metricsAddr    net.Addr
	apiAddr        net.Addr
	addrMu         sync.Mutex
}

// New opens the database, seeds the reference ledger and builds the engine
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if cfg == nil {
		return nil, errors.New("no configuration provided")
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n := &Node{
		cfg:      cfg,
		logger:   logger.With("component", "node"),
		registry: prometheus.NewRegistry(),
	}
	n.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.Tracing {
		tp, err := setupTracing(ctx, cfg.TracingStdout, os.Stdout)
		if err != nil {
			return nil, err
		}
		n.tracerProvider = tp
	}
	db, err := database.New(&database.Config{
		DataDir:      cfg.DatabasePath,
		Logger:       logger,
		PromRegistry: n.registry,
	})
	if err != nil {
		var tsErr database.CommitTimestampError
		if db == nil || !errors.As(err, &tsErr) {
			n.shutdownTracing()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		n.logger.Warn(
			"database stores are out of sync, metadata may be stale",
			"error", err,
		)
	}
	n.db = db
	if err := n.setupLedger(); err != nil {
		_ = n.Close()
		return nil, err
	}
	engineOpts := []supersig.ConfigOptionFunc{
		supersig.WithLogger(logger),
		supersig.WithPrometheusRegistry(n.registry),
		supersig.WithDatabase(n.db),
		supersig.WithLedger(n.ledger),
		supersig.WithDepositPerByte(cfg.Governance.DepositPerByte),
		supersig.WithMaxCallDataSize(cfg.Governance.MaxCallDataSize),
		supersig.WithMaxCallsPerUnit(cfg.Governance.MaxCallsPerUnit),
		supersig.WithMaxAccountsPerTransaction(
			cfg.Governance.MaxAccountsPerTransaction,
		),
	}
	if n.tracerProvider != nil {
		engineOpts = append(
			engineOpts,
			supersig.WithTracerProvider(n.tracerProvider),
		)
	}
	engine, err := supersig.New(supersig.NewConfig(engineOpts...))
	if err != nil {
		_ = n.Close()
		return nil, err
	}
	n.engine = engine
	n.subscribeEvents()
	return n, nil
}

func (n *Node) setupLedger() error {
	n.ledger = ledger.NewMemoryLedger(n.cfg.Ledger.ExistentialDeposit)
	endowments, err := n.cfg.Endowments()
	if err != nil {
		return err
	}
	for acct, amount := range endowments {
		if err := n.ledger.Mint(acct, amount); err != nil {
			return fmt.Errorf("endow %s: %w", acct, err)
		}
	}
	n.logger.Debug(
		fmt.Sprintf("endowed %d accounts", len(endowments)),
	)
	return nil
}

// subscribeEvents logs every governance event
func (n *Node) subscribeEvents() {
	n.eventSubs = make(map[event.EventType]event.EventSubscriberId)
	eventLogger := n.logger.With("component", "event")
	for _, evtType := range event.GovernanceEventTypes {
		n.eventSubs[evtType] = n.engine.EventBus().SubscribeFunc(
			evtType,
			func(evt event.Event) {
				eventLogger.Info(
					"governance event",
					"type", string(evt.Type),
					"data", fmt.Sprintf("%+v", evt.Data),
				)
			},
		)
	}
}

func (n *Node) Engine() *supersig.Engine {
	return n.engine
}

func (n *Node) Ledger() *ledger.MemoryLedger {
	return n.ledger
}

// ApiAddr returns the bound API listener address while Run is active
func (n *Node) ApiAddr() net.Addr {
	n.addrMu.Lock()
	defer n.addrMu.Unlock()
	return n.apiAddr
}

// MetricsAddr returns the bound metrics listener address while Run is active
func (n *Node) MetricsAddr() net.Addr {
	n.addrMu.Lock()
	defer n.addrMu.Unlock()
	return n.metricsAddr
}

// Run serves the query API and metrics until ctx is done
func (n *Node) Run(ctx context.Context) error {
	shutdownTimeout, err := n.cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	apiServer := api.New(
		api.Config{ListenAddress: n.cfg.ApiListenAddress()},
		n.engine,
		n.logger,
	)
	metricsMux := http.NewServeMux()
	metricsMux.Handle(
		"/metrics",
		promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}),
	)
	metricsServer := &http.Server{
		Handler:           metricsMux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	metricsListener, err := net.Listen("tcp", n.cfg.MetricsListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen for metrics: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := apiServer.Start(runCtx); err != nil {
		_ = metricsListener.Close()
		return err
	}
	n.addrMu.Lock()
	n.apiAddr = apiServer.Addr()
	n.metricsAddr = metricsListener.Addr()
	n.addrMu.Unlock()
	n.logger.Info("serving prometheus metrics on " + metricsListener.Addr().String())

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := metricsServer.Serve(metricsListener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		n.logger.Info("initiating graceful shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(
			context.WithoutCancel(gctx),
			shutdownTimeout,
		)
		defer shutdownCancel()
		return errors.Join(
			apiServer.Stop(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})
	err = g.Wait()
	n.addrMu.Lock()
	n.apiAddr = nil
	n.metricsAddr = nil
	n.addrMu.Unlock()
	return err
}

// Close releases the engine, database and tracer provider
func (n *Node) Close() error {
	var errs []error
	if n.engine != nil {
		for evtType, subId := range n.eventSubs {
			n.engine.EventBus().Unsubscribe(evtType, subId)
		}
		errs = append(errs, n.engine.Close())
	}
	if n.db != nil {
		errs = append(errs, n.db.Close())
	}
	errs = append(errs, n.shutdownTracing())
	return errors.Join(errs...)
}

func (n *Node) shutdownTracing() error {
	if n.tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.tracerProvider.Shutdown(ctx)
}

// Run starts a node and blocks until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	n, err := New(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	runErr := n.Run(signalCtx)
	if runErr != nil {
		logger.Error("node error", "error", runErr, "component", "node")
	}
	if err := n.Close(); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "node")
		return errors.Join(runErr, err)
	}
	logger.Info("shutdown complete", "component", "node")
	return runErr
}
