package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flitsinc/agentboard/internal/api"
	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/config"
	"github.com/flitsinc/agentboard/internal/jobs"
	"github.com/flitsinc/agentboard/internal/mcptools"
	"github.com/flitsinc/agentboard/internal/notify"
	"github.com/flitsinc/agentboard/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, realtime channel and web UI",
	Long: `Serve the board over HTTP.

The websocket endpoint /ws receives "UPDATE" after every state change. With
redis_addr set, changes are relayed through Redis so several replicas can
share one database. With mcp_token set, the MCP tools are served on
mcp_addr as well.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	_ = settings.BindPFlag(config.KeyHTTPAddr, serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	g, gctx := errgroup.WithContext(ctx)

	hub := notify.NewHub(a.component("hub"))
	var notifier board.Notifier = notify.NewLocal(hub)
	relay := "local"
	if client := a.redisClient(); client != nil {
		r := notify.NewRedisRelay(client, cfg.RedisChannel, hub, a.component("relay"))
		g.Go(func() error {
			r.Run(gctx)
			return nil
		})
		notifier, relay = r, "redis"
	}

	pool := jobs.NewPool(cfg.IndexWorkers, cfg.IndexQueue, a.component("jobs"))
	defer func() { _ = pool.Close() }()

	svc := a.service(notifier, pool)
	apiServer := &api.Server{
		Board:     svc,
		Hub:       hub,
		Log:       a.component("api"),
		StartedAt: time.Now().UTC(),
		Info: api.DiagnosticsInfo{
			HTTPAddr:  cfg.HTTPAddr,
			Store:     a.storeName,
			WebDir:    cfg.WebDir,
			Providers: a.providers,
			Relay:     relay,
		},
	}
	if info, err := os.Stat(cfg.WebDir); err == nil && info.IsDir() {
		apiServer.Web = (&web.Server{Dir: cfg.WebDir}).Middleware()
	}

	servers := []*http.Server{newHTTPServer(gctx, cfg.HTTPAddr, apiServer.Handler())}
	if cfg.MCPToken != "" {
		handler := mcptools.NewHTTPHandler(mcptools.NewServer(svc, Version), cfg.MCPToken)
		servers = append(servers, newHTTPServer(gctx, cfg.MCPAddr, handler))
	}

	for _, srv := range servers {
		g.Go(func() error {
			a.log.WithField("addr", srv.Addr).Info("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.WithError(err).WithField("addr", srv.Addr).Warn("server shutdown error")
				_ = srv.Close()
			}
		}
		return nil
	})

	err = g.Wait()
	a.log.Info("stopped")
	return err
}

// newHTTPServer ties request contexts to ctx so open websockets end when the
// process is asked to stop.
func newHTTPServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
