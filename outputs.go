package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"kltransit.dev/pipeline/model"
)

// WriteOutputs writes the dataset files under dir. Everything is
// marshaled before the first byte hits disk, so a marshaling failure
// never leaves a half-written dataset behind.
func WriteOutputs(result *Result, dir string) error {
	type output struct {
		name string
		data []byte
	}
	outputs := []output{}

	addJSON := func(name string, v interface{}) error {
		buf, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", name, err)
		}
		outputs = append(outputs, output{name, append(buf, '\n')})
		return nil
	}
	addCSV := func(name string, v interface{}) error {
		s, err := gocsv.MarshalString(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", name, err)
		}
		outputs = append(outputs, output{name, []byte(s)})
		return nil
	}

	stops := result.Stops
	if stops == nil {
		stops = []model.Stop{}
	}
	services := result.Services
	if services == nil {
		services = []model.Service{}
	}
	routes := result.Routes
	if routes == nil {
		routes = []model.Route{}
	}
	shapes := result.Shapes
	if shapes == nil {
		shapes = []model.Shape{}
	}

	if err := addJSON("stops.json", stops); err != nil {
		return err
	}
	if err := addCSV("stops.csv", &stops); err != nil {
		return err
	}
	if err := addJSON("services.json", services); err != nil {
		return err
	}
	if err := addCSV("services.csv", &services); err != nil {
		return err
	}
	if err := addJSON("routes.json", routes); err != nil {
		return err
	}
	if err := addJSON("shapes.json", shapes); err != nil {
		return err
	}
	if err := addJSON("stop_id_mapping.json", result.Mapping); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, out.data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out.name, err)
		}
	}
	return nil
}
