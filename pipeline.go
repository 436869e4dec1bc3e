// Package pipeline reconciles raw Kuala Lumpur transit exports into
// one canonical dataset: every stop resolved to a single identity
// across the legacy, Rapid and MRT ID spaces, services rewritten
// against those identities, and routes assembled with per-direction
// trips and geometry.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"kltransit.dev/pipeline/build"
	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/normalize"
	"kltransit.dev/pipeline/parse"
	"kltransit.dev/pipeline/resolve"
)

type Config struct {
	Sources parse.SourcePaths

	// Nil means the built-in table.
	Overrides map[string]resolve.Override

	// Manual corrections applied to the canonical stop set after
	// resolution.
	Changes []model.StopChange

	// Route numbers whose two trips arrive with directions
	// flipped at the source.
	SwapRoutes []string

	Logger zerolog.Logger
}

type Result struct {
	Stops    []model.Stop
	Services []model.Service
	Routes   []model.Route
	Shapes   []model.Shape

	Mapping      resolve.IDMapping
	Report       resolve.Report
	ServiceStats build.ServiceStats
}

// Run executes the full pipeline. Nothing is written anywhere; the
// caller decides what to do with the Result.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	logger := cfg.Logger

	src, err := parse.LoadSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	legacyStops := src.LegacyStops
	if len(legacyStops) == 0 {
		legacyStops = derivedLegacyStops(src)
		logger.Info().
			Int("stops", len(legacyStops)).
			Msg("no legacy dump, derived stops from raw rows")
	}

	res := resolve.Resolve(resolve.Input{
		LegacyStops: legacyStops,
		RapidStops:  src.RapidStops,
		MRTStops:    src.MRTStops,
		BusRows:     src.BusRows,
		Overrides:   cfg.Overrides,
	})
	if err := resolve.VerifyConservation(legacyStops, res.Stops); err != nil {
		return nil, err
	}
	logger.Info().
		Int("legacy", res.Report.TotalLegacy).
		Int("canonical", res.Report.Canonical).
		Int("auto_merged", res.Report.AutoMerged).
		Int("ambiguous", len(res.Report.Ambiguous)).
		Int("no_id", res.Report.NoID).
		Msg("resolved stop identities")

	stops := res.Stops
	for i := range stops {
		stops[i].Name = normalize.CleanStopName(stops[i].Name)
		stops[i].StreetName = normalize.CleanStreetName(stops[i].StreetName)
	}

	stops, err = model.ApplyChanges(stops, cfg.Changes)
	if err != nil {
		return nil, err
	}

	services, stats := build.Services(src.BusRows, res.LegacyToCanonical, logger)
	if err := build.VerifySequences(services); err != nil {
		return nil, err
	}
	logger.Info().
		Int("rows", stats.TotalRows).
		Int("services", stats.Services).
		Int("skipped", stats.Skipped).
		Int("gaps", stats.MappingGaps).
		Int("deduped", stats.Deduped).
		Msg("built service table")

	routes := build.Routes(src.RouteIndex)
	if err := build.Trips(routes, services, src.Shapes); err != nil {
		return nil, err
	}
	for _, number := range cfg.SwapRoutes {
		for i := range routes {
			if routes[i].RouteShortName == number {
				routes[i].SwapTrips()
			}
		}
	}
	logger.Info().Int("routes", len(routes)).Msg("assembled routes")

	return &Result{
		Stops:        stops,
		Services:     services,
		Routes:       routes,
		Shapes:       src.Shapes,
		Mapping:      res.Mapping,
		Report:       res.Report,
		ServiceStats: stats,
	}, nil
}

// RoutesByStop indexes the service table by canonical stop, for the
// audit report.
func RoutesByStop(services []model.Service) map[int][]string {
	routes := map[int][]string{}
	for _, s := range services {
		found := false
		for _, r := range routes[s.StopID] {
			if r == s.RouteNumber {
				found = true
				break
			}
		}
		if !found {
			routes[s.StopID] = append(routes[s.StopID], s.RouteNumber)
		}
	}
	return routes
}

func derivedLegacyStops(src *parse.Sources) []parse.LegacyStop {
	extracted := parse.ExtractStops(src.BusRows, parse.MRTNameToCode(src.MRTStops))
	stops := make([]parse.LegacyStop, len(extracted))
	for i, e := range extracted {
		stops[i] = parse.LegacyStop{
			StopID:     e.LegacyID,
			Code:       e.Code,
			Name:       e.Name,
			StreetName: e.StreetName,
			Latitude:   parse.Coordinate(e.Latitude),
			Longitude:  parse.Coordinate(e.Longitude),
		}
	}
	return stops
}
