package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kltransit.dev/pipeline"
	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/parse"
)

var rootCmd = &cobra.Command{
	Use:          "kltransit",
	Short:        "KL transit data pipeline",
	Long:         "Reconciles raw KL transit exports into a canonical dataset",
	SilenceUsage: true,
}

var (
	legacyStopsPath string
	rapidStopsPath  string
	mrtStopsPath    string
	busRowsPath     string
	shapesPath      string
	routesPath      string
	changesPath     string
	swapRoutes      []string
	verbose         bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&legacyStopsPath, "legacy-stops", "", "", "legacy stops JSON dump (optional)")
	rootCmd.PersistentFlags().StringVarP(&rapidStopsPath, "rapid-stops", "", "data/rapid_stops.csv", "Rapid stop catalog CSV")
	rootCmd.PersistentFlags().StringVarP(&mrtStopsPath, "mrt-stops", "", "data/mrt_stops.csv", "MRT stop catalog CSV")
	rootCmd.PersistentFlags().StringVarP(&busRowsPath, "bus-stops", "", "data/all_bus_stops.csv", "raw per-route stop rows CSV")
	rootCmd.PersistentFlags().StringVarP(&shapesPath, "shapes", "", "data/shapes.csv", "route shapes CSV")
	rootCmd.PersistentFlags().StringVarP(&routesPath, "routes", "", "data/routes.json", "curated route index JSON")
	rootCmd.PersistentFlags().StringVarP(&changesPath, "changes", "", "", "approved stop changes JSON (optional)")
	rootCmd.PersistentFlags().StringSliceVarP(&swapRoutes, "swap-route", "", []string{}, "route number with flipped trip directions (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Sources: parse.SourcePaths{
			LegacyStops: legacyStopsPath,
			RapidStops:  rapidStopsPath,
			MRTStops:    mrtStopsPath,
			BusRows:     busRowsPath,
			Shapes:      shapesPath,
			Routes:      routesPath,
		},
		SwapRoutes: swapRoutes,
		Logger:     newLogger(),
	}

	if changesPath != "" {
		changes, err := readChanges(changesPath)
		if err != nil {
			return cfg, err
		}
		cfg.Changes = changes
	}

	return cfg, nil
}

func readChanges(path string) ([]model.StopChange, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changes: %w", err)
	}
	var changes []model.StopChange
	if err := json.Unmarshal(buf, &changes); err != nil {
		return nil, fmt.Errorf("parsing changes: %w", err)
	}
	return changes, nil
}
