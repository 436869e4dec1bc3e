package main

import (
	"time"

	"github.com/spf13/cobra"

	"kltransit.dev/pipeline"
	"kltransit.dev/pipeline/directions"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Runs the pipeline, routes every stop pair and writes the dataset",
	Long: "Like run, but also queries a routing server for the road geometry " +
		"between consecutive stops of every trip. Slow against public servers.",
	Args: cobra.NoArgs,
	RunE: segments,
}

var (
	routerURL       string
	requestInterval time.Duration
	segmentsOutDir  string
)

func init() {
	segmentsCmd.Flags().StringVarP(&routerURL, "router", "", directions.DefaultBaseURL, "OSRM-compatible routing server")
	segmentsCmd.Flags().DurationVarP(&requestInterval, "interval", "", 500*time.Millisecond, "delay between routing requests")
	segmentsCmd.Flags().StringVarP(&segmentsOutDir, "out", "o", "out", "output directory")
	rootCmd.AddCommand(segmentsCmd)
}

func segments(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	client := directions.NewClient(routerURL, cfg.Logger)
	client.RequestInterval = requestInterval

	filled, err := client.PopulateSegments(cmd.Context(), result.Routes, result.Stops)
	if err != nil {
		return err
	}
	cfg.Logger.Info().Int("segments", filled).Msg("routed stop pairs")

	return pipeline.WriteOutputs(result, segmentsOutDir)
}
