package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"kltransit.dev/pipeline/model"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Applies approved stop changes to a written dataset",
	Args:  cobra.NoArgs,
	RunE:  apply,
}

var applyStopsPath string

func init() {
	applyCmd.Flags().StringVarP(&applyStopsPath, "stops", "", "out/stops.json", "canonical stops JSON to update")
	rootCmd.AddCommand(applyCmd)
}

func apply(cmd *cobra.Command, args []string) error {
	if changesPath == "" {
		return errors.New("--changes is required")
	}
	logger := newLogger()

	buf, err := os.ReadFile(applyStopsPath)
	if err != nil {
		return errors.Wrap(err, "reading stops")
	}
	var stops []model.Stop
	if err := json.Unmarshal(buf, &stops); err != nil {
		return errors.Wrap(err, "parsing stops")
	}

	changes, err := readChanges(changesPath)
	if err != nil {
		return err
	}

	updated, err := model.ApplyChanges(stops, changes)
	if err != nil {
		return err
	}

	jsonBuf, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stops.json: %w", err)
	}
	csvBuf, err := gocsv.MarshalString(&updated)
	if err != nil {
		return fmt.Errorf("marshaling stops.csv: %w", err)
	}

	dir := filepath.Dir(applyStopsPath)
	if err := os.WriteFile(applyStopsPath, append(jsonBuf, '\n'), 0o644); err != nil {
		return errors.Wrap(err, "writing stops.json")
	}
	if err := os.WriteFile(filepath.Join(dir, "stops.csv"), []byte(csvBuf), 0o644); err != nil {
		return errors.Wrap(err, "writing stops.csv")
	}

	logger.Info().
		Int("changes", len(changes)).
		Int("stops", len(updated)).
		Msg("applied stop changes")
	return nil
}
