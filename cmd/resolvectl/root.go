package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/branchboard/resolvercore/internal/config"
	"github.com/branchboard/resolvercore/internal/fixture"
)

var (
	fixturePath string
	boardID     string
	cfg         config.Config
	logger      *slog.Logger
	requestID   string
)

var rootCmd = &cobra.Command{
	Use:   "resolvectl",
	Short: "Drive a resolver session against a fixture board",
	Long:  "resolvectl is a demo harness for the formula resolver core. It loads a JSON fixture board and resolves columns against it, reporting how many remote calls each resolve took.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if fixturePath != "" {
			cfg.Fixture.Path = fixturePath
		}

		level := slog.LevelInfo
		if cfg.Resolver.DebugLog || cfg.Log.Level == "debug" {
			level = slog.LevelDebug
		}
		requestID = uuid.NewString()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With(slog.String("request_id", requestID))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to a JSON fixture board (default from config)")
	rootCmd.PersistentFlags().StringVar(&boardID, "board", "123", "board id within the fixture file")
}

func loadFixtureClient() (*fixture.Client, error) {
	return fixture.Load(cfg.Fixture.Path)
}
