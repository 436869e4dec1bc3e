// Package parse reads the raw transit-authority exports: the legacy
// coordinate-keyed JSON dump, the Rapid and MRT operator catalogs,
// the per-route stop rows, the route shapes and the route index. It
// also owns stop extraction and operator-code parsing over the raw
// rows.
package parse

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/sourcegraph/conc/pool"
	"github.com/spkg/bom"

	"kltransit.dev/pipeline/model"
)

// All raw inputs of a pipeline run, fully read before any stage
// starts processing.
type Sources struct {
	LegacyStops []LegacyStop
	RapidStops  []CatalogStop
	MRTStops    []CatalogStop
	BusRows     []BusRow
	Shapes      []model.Shape
	RouteIndex  map[string]RouteInfo
}

type SourcePaths struct {
	LegacyStops string
	RapidStops  string
	MRTStops    string
	BusRows     string
	Shapes      string
	Routes      string
}

// LoadSources reads every input file. The files are independent, so
// the reads are issued concurrently and joined before returning;
// any failure fails the whole load.
func LoadSources(paths SourcePaths) (*Sources, error) {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	src := &Sources{}

	p := pool.New().WithErrors()
	if paths.LegacyStops != "" {
		// Optional. Without the dump, legacy stops are derived
		// from the raw rows instead.
		p.Go(func() error {
			return loadFile(paths.LegacyStops, func(r io.Reader) (err error) {
				src.LegacyStops, err = ParseLegacyStops(r)
				return
			})
		})
	}
	p.Go(func() error {
		return loadFile(paths.RapidStops, func(r io.Reader) (err error) {
			src.RapidStops, err = ParseRapidStops(r)
			return
		})
	})
	p.Go(func() error {
		return loadFile(paths.MRTStops, func(r io.Reader) (err error) {
			src.MRTStops, err = ParseMRTStops(r)
			return
		})
	})
	p.Go(func() error {
		return loadFile(paths.BusRows, func(r io.Reader) (err error) {
			src.BusRows, err = ParseBusRows(r)
			return
		})
	})
	p.Go(func() error {
		return loadFile(paths.Shapes, func(r io.Reader) (err error) {
			src.Shapes, err = ParseShapes(r)
			return
		})
	})
	p.Go(func() error {
		return loadFile(paths.Routes, func(r io.Reader) (err error) {
			src.RouteIndex, err = ParseRouteIndex(r)
			return
		})
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return src, nil
}

func loadFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := parse(f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
