package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/branchboard/resolvercore"
)

var batchCmd = &cobra.Command{
	Use:   "batch <columnID> <itemID> [itemID...]",
	Short: "Resolve one column across many items in a single session",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	columnID, itemIDs := args[0], args[1:]

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

	values, err := sess.ResolveBatch(cmd.Context(), boardID, columnID, itemIDs)
	if err != nil {
		return fmt.Errorf("batch resolve %s: %w", columnID, err)
	}

	rows := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		rows = append(rows, fmt.Sprintf("%s=%s", id, values[id].Display()))
	}
	fmt.Println(strings.Join(rows, " "))
	fmt.Printf("remote calls: schema=%d display=%d deep_mirror=%d multi_column=%d\n",
		client.SchemaCalls, client.DisplayCalls, client.DeepMirrorCalls, client.MultiColumnCalls)
	return nil
}
