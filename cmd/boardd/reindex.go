package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexMissingOnly bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute embeddings for tasks and documents",
	Long: `Recompute the embedding of every task and document with the configured
provider chain. Run it after switching providers or models so stored vectors
stay comparable. With --missing-only, rows that already have a vector are
left alone.`,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexMissingOnly, "missing-only", false, "Only index rows without an embedding")
}

func runReindex(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	if a.embedder == nil {
		return errors.New("no embedding provider configured")
	}

	n, err := a.service(nil, nil).Reindex(cmd.Context(), reindexMissingOnly)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d rows\n", n)
	return nil
}
