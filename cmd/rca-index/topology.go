package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/rca-code-index/internal/index"
	"github.com/randalmurphy/rca-code-index/internal/indexer"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Show the service breakdown of the indexed corpus",
	Long: `Summarize chunks per owning service as resolved by the configured
topology rules. With --resolve, map a single path or namespace to its
service instead.`,
	RunE: runTopology,
}

func init() {
	topologyCmd.Flags().String("resolve", "", "Resolve a path or namespace to its service")
	rootCmd.AddCommand(topologyCmd)
}

func runTopology(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if token, _ := cmd.Flags().GetString("resolve"); token != "" {
		fmt.Println(newResolver(cfg).ResolveToken(token))
		return nil
	}

	terms := index.NewTermIndex()
	st, closeStore, err := newStore(cfg, terms)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	chunks, err := st.All(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	stats := indexer.NewStats()
	for _, c := range chunks {
		stats.Add(c)
	}

	services := make([]string, 0, len(stats.Services))
	for svc := range stats.Services {
		services = append(services, svc)
	}
	sort.Strings(services)

	fmt.Printf("%d chunks across %d services\n", stats.TotalChunks, len(services))
	for _, svc := range services {
		fmt.Printf("  %-24s %d\n", svc, stats.Services[svc])
	}
	return nil
}
