package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kltransit.dev/pipeline"
	"kltransit.dev/pipeline/parse"
	"kltransit.dev/pipeline/storage"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Runs the pipeline and upserts the dataset into postgres",
	Args:  cobra.NoArgs,
	RunE:  upload,
}

var (
	databaseURL string
	prune       bool
)

func init() {
	uploadCmd.Flags().StringVarP(&databaseURL, "database", "d", "", "postgres connection string (falls back to $DATABASE_URL)")
	uploadCmd.Flags().BoolVarP(&prune, "prune", "", true, "delete routes that are excluded upstream")
	rootCmd.AddCommand(uploadCmd)
}

func upload(cmd *cobra.Command, args []string) error {
	connStr := databaseURL
	if connStr == "" {
		connStr = envDatabaseURL()
	}
	if connStr == "" {
		return fmt.Errorf("no database configured, pass --database or set DATABASE_URL")
	}

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	s, err := storage.NewPostgresStorage(connStr)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := writeStorage(s, result); err != nil {
		return err
	}
	cfg.Logger.Info().
		Int("stops", len(result.Stops)).
		Int("services", len(result.Services)).
		Int("routes", len(result.Routes)).
		Msg("uploaded dataset")

	if prune {
		deleted, err := s.DeleteRoutesWhere(parse.ShouldSkipRoute)
		if err != nil {
			return err
		}
		if deleted > 0 {
			cfg.Logger.Info().Int("routes", deleted).Msg("pruned excluded routes")
		}
	}

	return nil
}

func envDatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}
