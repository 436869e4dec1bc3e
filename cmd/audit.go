package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kltransit.dev/pipeline"
	"kltransit.dev/pipeline/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Reports stops suspiciously close to each other",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

var (
	nearbyThreshold float64
	auditOutPath    string
)

func init() {
	auditCmd.Flags().Float64VarP(&nearbyThreshold, "threshold", "t", audit.NearbyThresholdMeters, "distance threshold in meters")
	auditCmd.Flags().StringVarP(&auditOutPath, "out", "o", "", "also write the report as JSON at this path")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	groups := audit.FindNearby(result.Stops, pipeline.RoutesByStop(result.Services), nearbyThreshold)
	fmt.Print(audit.RenderTable(groups))

	if auditOutPath != "" {
		buf, err := audit.RenderJSON(groups)
		if err != nil {
			return err
		}
		if err := os.WriteFile(auditOutPath, buf, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}
