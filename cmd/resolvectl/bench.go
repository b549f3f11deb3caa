package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/branchboard/resolvercore"
)

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench <columnID> <itemID>",
	Short: "Resolve one column on one item repeatedly, fresh session each time, and report timing",
	Args:  cobra.ExactArgs(2),
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 20, "number of fresh-session resolves to run")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	columnID, itemID := args[0], args[1]

	if benchIterations < 1 {
		return fmt.Errorf("--iterations must be >= 1")
	}

	var total time.Duration
	var worst time.Duration
	for i := 0; i < benchIterations; i++ {
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

		start := time.Now()
		_, err = sess.Resolve(cmd.Context(), boardID, columnID, itemID)
		elapsed := time.Since(start)
		sess.Close(cmd.Context())
		if err != nil {
			return fmt.Errorf("resolve %s@%s on iteration %d: %w", columnID, itemID, i, err)
		}

		total += elapsed
		if elapsed > worst {
			worst = elapsed
		}
	}

	avg := total / time.Duration(benchIterations)
	fmt.Printf("iterations=%d avg=%s worst=%s total=%s\n", benchIterations, avg, worst, total)
	return nil
}
