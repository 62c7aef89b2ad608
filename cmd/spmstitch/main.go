package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spmstitch/spmstitch"
)

var (
	channelLabel string
	outputPath   string
	configPath   string
	verbose      bool

	orch *spmstitch.Orchestrator
	log  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spmstitch",
	Short: "stitch overlapping SPM scan tiles into a single mosaic",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		var cfg spmstitch.Config
		opts := []spmstitch.Option{spmstitch.WithChannelLabel(channelLabel)}
		if configPath != "" {
			cfg, err = spmstitch.LoadConfigFile(configPath, opts...)
		} else {
			cfg, err = spmstitch.NewConfig(opts...)
		}
		if err != nil {
			return fmt.Errorf("build config: %w", err)
		}

		orch = spmstitch.NewOrchestrator(cfg, spmstitch.NewMetrics(nil), log)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return log.Sync()
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview tile1.spm tile2.spm...",
	Short: "align and composite tiles, reporting the resulting canvas size",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := spmstitch.RunID()
		tiles, err := orch.LoadTiles(runID, args)
		if err != nil {
			return err
		}
		orch.FlattenAll(tiles)

		mosaic, err := orch.Preview(tiles)
		if err != nil {
			return err
		}
		fmt.Printf("canvas %dx%d\n", mosaic.W, mosaic.H)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save tile1.spm tile2.spm...",
	Short: "align, composite, and re-encode the tiles to an SPM mosaic file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := spmstitch.RunID()
		tiles, err := orch.LoadTiles(runID, args)
		if err != nil {
			return err
		}
		orch.FlattenAll(tiles)

		return orch.Save(tiles, args[0], outputPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&channelLabel, "channel", "Height", "image channel to stitch")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose (development) logging")

	saveCmd.Flags().StringVar(&outputPath, "output", "mosaic.spm", "destination file")

	rootCmd.AddCommand(previewCmd, saveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
