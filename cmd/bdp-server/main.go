// Command bdp-server runs the registry HTTP API (spec.md §6): it wires
// internal/regdb, internal/blobstore, internal/mediator,
// internal/search, and internal/resolve behind internal/httpapi.Server
// and serves them over plain net/http, following the shutdown idiom of
// the teacher's internal/rpc.HTTPServer (listen, serve in a goroutine,
// context-cancellation-triggered graceful Shutdown).
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bdp-project/bdp/internal/blobstore"
	"github.com/bdp-project/bdp/internal/httpapi"
	"github.com/bdp-project/bdp/internal/ingest"
	"github.com/bdp-project/bdp/internal/logging"
	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/metrics"
	"github.com/bdp-project/bdp/internal/regdb"
	"github.com/bdp-project/bdp/internal/resolve"
	"github.com/bdp-project/bdp/internal/search"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bdp-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	debug := os.Getenv("BDP_DEBUG") != ""
	logger, err := logging.New(logging.Options{Debug: debug, Component: "bdp-server"})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	store, err := regdb.Open(dsn)
	if err != nil {
		return fmt.Errorf("open registry store: %w", err)
	}
	defer store.DB.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}

	blobDir := os.Getenv("BDP_BLOB_DIR")
	if blobDir == "" {
		blobDir = "./bdp-blobs"
	}
	secret := []byte(os.Getenv("BDP_BLOB_SECRET"))
	if len(secret) == 0 {
		logger.Warn("BDP_BLOB_SECRET not set; presigned download links will use an ephemeral per-process key")
		secret = ephemeralSecret()
	}
	blobs, err := blobstore.NewFSStore(blobDir, secret)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	m := mediator.New()
	dispatcher := mediator.NewAuditingDispatcher(m, store, logger)
	searchSvc := search.New(store)
	resolver := resolve.New(store, blobs)
	reg := metrics.New()

	refresher := search.NewRefresher(store, func(err error) {
		logger.Error("search projection refresh failed", zap.Error(err))
	})
	defer refresher.Stop()

	coordinator := ingest.NewCoordinator(store)

	server := &httpapi.Server{
		Store:       store,
		Blobs:       blobs,
		Dispatcher:  dispatcher,
		Search:      searchSvc,
		Resolver:    resolver,
		Metrics:     reg,
		Logger:      logger,
		Refresher:   refresher,
		Coordinator: coordinator,
	}

	addr := os.Getenv("BDP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
