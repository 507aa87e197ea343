// Command boardd runs the collaborative task board: the HTTP API with its
// realtime channel, the MCP tool server, and maintenance jobs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flitsinc/agentboard/internal/config"
)

// Version is stamped at build time.
var Version = "dev"

var (
	configFile string
	envFile    string

	settings = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "boardd",
	Short: "Collaborative task board for humans and agents",
	Long: `boardd serves a kanban-style task board shared by people and AI agents.

Settings come from flags, AGENTBOARD_* environment variables, an optional
config file and a .env file, in that order of precedence.

Examples:
  boardd serve                     # HTTP API, websocket and web UI
  boardd mcp                       # MCP tools over stdio
  boardd mcp --transport http      # MCP tools over HTTP, bearer protected
  boardd reindex --missing-only    # backfill embeddings`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file; missing files are ignored")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	_ = settings.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// loadConfig resolves settings once flags are parsed.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(settings, configFile)
}

