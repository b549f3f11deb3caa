package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/branchboard/resolvercore"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <columnID> <itemID>",
	Short: "Resolve one column on one item",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	columnID, itemID := args[0], args[1]

	client, err := loadFixtureClient()
	if err != nil {
		return err
	}

	opts := resolvercore.DefaultOptions()
	opts.BatchWindow = cfg.Resolver.BatchWindow()
	opts.SchemaTTL = cfg.Resolver.SchemaTTL()
	opts.DebugLog = cfg.Resolver.DebugLog
	opts.Logger = logger

	sess := resolvercore.NewSession(client, opts)
	defer sess.Close(cmd.Context())

	start := time.Now()
	value, err := sess.Resolve(cmd.Context(), boardID, columnID, itemID)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("resolve %s@%s: %w", columnID, itemID, err)
	}

	stats := sess.Stats()
	fmt.Printf("%s = %s\n", columnID, value.Display())
	fmt.Printf("elapsed=%s schema_fetches=%d value_cache_hits=%d coordinator_fetches=%d\n",
		elapsed, stats.SchemaFetches, stats.ValueCacheHits, stats.CoordinatorFetches)
	fmt.Printf("remote calls: schema=%d display=%d deep_mirror=%d multi_column=%d\n",
		client.SchemaCalls, client.DisplayCalls, client.DeepMirrorCalls, client.MultiColumnCalls)
	return nil
}
