package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/config"
	"github.com/flitsinc/agentboard/internal/jobs"
	"github.com/flitsinc/agentboard/internal/mcptools"
	"github.com/flitsinc/agentboard/internal/notify"
)

var mcpTransport string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the board tools over the Model Context Protocol",
	Long: `Serve list_tasks, create_task, update_task and the document tools to MCP
clients.

The stdio transport is meant to be launched by the client. The http
transport listens on mcp_addr and requires mcp_token; every request must
carry "Authorization: Bearer <token>". When redis_addr is set, changes made
through the tools reach websocket viewers of "boardd serve".`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport: stdio or http")
	mcpCmd.Flags().String("addr", "", "Listen address for the http transport (default :8090)")
	_ = settings.BindPFlag(config.KeyMCPAddr, mcpCmd.Flags().Lookup("addr"))
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if mcpTransport != "stdio" && mcpTransport != "http" {
		return fmt.Errorf("unknown transport %q (want stdio or http)", mcpTransport)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if mcpTransport == "http" && a.cfg.MCPToken == "" {
		return errors.New("mcp_token is required for the http transport")
	}

	var notifier board.Notifier
	if client := a.redisClient(); client != nil {
		notifier = notify.NewRedisRelay(client, a.cfg.RedisChannel, nil, a.component("relay"))
	}
	pool := jobs.NewPool(a.cfg.IndexWorkers, a.cfg.IndexQueue, a.component("jobs"))
	defer func() { _ = pool.Close() }()

	s := mcptools.NewServer(a.service(notifier, pool), Version)

	if mcpTransport == "stdio" {
		return server.ServeStdio(s)
	}

	srv := newHTTPServer(ctx, a.cfg.MCPAddr, mcptools.NewHTTPHandler(s, a.cfg.MCPToken))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	a.log.WithField("addr", srv.Addr).Info("mcp listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
