// Package build turns resolved stops and raw route rows into the
// published service, route and trip tables.
package build

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/parse"
)

// ServiceStats counts what happened to the raw rows on their way into
// the service table.
type ServiceStats struct {
	TotalRows   int
	Skipped     int
	MappingGaps int
	Deduped     int
	Services    int
}

type serviceKey struct {
	route     string
	stopID    int
	direction int
}

type directionKey struct {
	route     string
	direction int
}

// Services rewrites every raw route row against the canonical stop
// IDs. Rows on excluded routes are skipped, rows whose stop has no
// canonical identity are logged and dropped, and repeat visits to the
// same stop within a direction keep only the first row. Sequences are
// renumbered contiguously afterwards.
func Services(rows []parse.BusRow, stopIDs map[string]int, logger zerolog.Logger) ([]model.Service, ServiceStats) {
	stats := ServiceStats{TotalRows: len(rows)}

	seen := map[serviceKey]bool{}
	seq := map[directionKey]int{}
	services := []model.Service{}

	for _, row := range rows {
		if parse.ShouldSkipRoute(row.RouteNumber) {
			stats.Skipped++
			continue
		}

		stopID, ok := stopIDs[strings.TrimSpace(row.StopID)]
		if !ok {
			stopID, ok = stopIDs[row.LegacyID()]
		}
		if !ok {
			stats.MappingGaps++
			logger.Warn().
				Str("route", row.RouteNumber).
				Str("stop_id", row.StopID).
				Str("stop_name", row.StopName).
				Msg("no canonical stop for service row, dropping")
			continue
		}

		key := serviceKey{row.RouteNumber, stopID, row.Direction}
		if seen[key] {
			stats.Deduped++
			continue
		}
		seen[key] = true

		dirKey := directionKey{row.RouteNumber, row.Direction}
		seq[dirKey]++
		services = append(services, model.Service{
			RouteNumber: row.RouteNumber,
			StopID:      stopID,
			Sequence:    seq[dirKey],
			Direction:   row.Direction,
			Zone:        row.Zone,
		})
	}

	sort.SliceStable(services, func(i, j int) bool {
		a, b := services[i], services[j]
		if a.RouteNumber != b.RouteNumber {
			return a.RouteNumber < b.RouteNumber
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		return a.Sequence < b.Sequence
	})

	stats.Services = len(services)
	return services, stats
}

// VerifySequences checks that every route direction numbers its stops
// 1..n with no gaps. Services must already be sorted, as returned by
// Services.
func VerifySequences(services []model.Service) error {
	next := 0
	var prevRoute string
	prevDir := 0

	for _, s := range services {
		if s.RouteNumber != prevRoute || s.Direction != prevDir {
			prevRoute, prevDir = s.RouteNumber, s.Direction
			next = 1
		}
		if s.Sequence != next {
			return model.Invariant("services", "route %s direction %d: sequence %d where %d expected",
				s.RouteNumber, s.Direction, s.Sequence, next)
		}
		next++
	}
	return nil
}
