package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/rca-code-index/internal/index"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index store status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	terms := index.NewTermIndex()
	st, closeStore, err := newStore(cfg, terms)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	count, err := st.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	if err := hydrateTerms(cmd.Context(), st); err != nil {
		return fmt.Errorf("failed to hydrate term index: %w", err)
	}

	fmt.Printf("backend:        %s\n", cfg.Storage.Backend)
	fmt.Printf("chunks:         %d\n", count)
	fmt.Printf("indexed terms:  %d docs\n", terms.Len())
	return nil
}
