package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kltransit.dev/pipeline"
	"kltransit.dev/pipeline/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the pipeline and writes the dataset files",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var (
	outDir     string
	sqlitePath string
)

func init() {
	runCmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	runCmd.Flags().StringVarP(&sqlitePath, "sqlite", "", "", "also write a sqlite database at this path")
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := pipeline.WriteOutputs(result, outDir); err != nil {
		return err
	}
	cfg.Logger.Info().Str("dir", outDir).Msg("wrote dataset")

	if len(result.Report.Ambiguous) > 0 {
		fmt.Print(result.Report.String())
	}

	if sqlitePath != "" {
		s, err := storage.NewSQLiteStorage(sqlitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := writeStorage(s, result); err != nil {
			return err
		}
		cfg.Logger.Info().Str("path", sqlitePath).Msg("wrote sqlite database")
	}

	return nil
}

func writeStorage(s storage.Storage, result *pipeline.Result) error {
	if err := s.WriteStops(result.Stops); err != nil {
		return err
	}
	if err := s.WriteServices(result.Services); err != nil {
		return err
	}
	return s.WriteRoutes(result.Routes)
}
