package build

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/parse"
)

func TestServices(t *testing.T) {
	rows := []parse.BusRow{
		{RouteNumber: "506", StopID: "1002013", Direction: 1, Zone: 1},
		{RouteNumber: "506", StopID: "1008084", Direction: 1, Zone: 1},
		{RouteNumber: "506", StopID: "1002013", Direction: 2, Zone: 1},
		{RouteNumber: "100", StopID: "1008084", Direction: 1, Zone: 2},

		// Chartered event route, excluded outright.
		{RouteNumber: "MAHA2024", StopID: "1002013", Direction: 1},

		// Stop nobody resolved. Dropped with a warning.
		{RouteNumber: "506", StopID: "9999999", Direction: 1},

		// Repeat visit to a stop already seen in this direction.
		{RouteNumber: "506", StopID: "1002013", Direction: 1, Zone: 1},
	}
	stopIDs := map[string]int{
		"1002013": 1,
		"1008084": 2,
	}

	services, stats := Services(rows, stopIDs, zerolog.Nop())

	assert.Equal(t, 7, stats.TotalRows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.MappingGaps)
	assert.Equal(t, 1, stats.Deduped)
	assert.Equal(t, 4, stats.Services)

	require.Len(t, services, 4)

	// Sorted by route, direction, sequence.
	assert.Equal(t, model.Service{RouteNumber: "100", StopID: 2, Sequence: 1, Direction: 1, Zone: 2}, services[0])
	assert.Equal(t, model.Service{RouteNumber: "506", StopID: 1, Sequence: 1, Direction: 1, Zone: 1}, services[1])
	assert.Equal(t, model.Service{RouteNumber: "506", StopID: 2, Sequence: 2, Direction: 1, Zone: 1}, services[2])
	assert.Equal(t, model.Service{RouteNumber: "506", StopID: 1, Sequence: 1, Direction: 2, Zone: 1}, services[3])

	assert.NoError(t, VerifySequences(services))
}

func TestServicesResequenceAfterGap(t *testing.T) {
	// The dropped second row must not leave a hole in the numbering.
	rows := []parse.BusRow{
		{RouteNumber: "506", StopID: "1002013", Direction: 1},
		{RouteNumber: "506", StopID: "9999999", Direction: 1},
		{RouteNumber: "506", StopID: "1008084", Direction: 1},
	}
	stopIDs := map[string]int{"1002013": 1, "1008084": 2}

	services, stats := Services(rows, stopIDs, zerolog.Nop())

	assert.Equal(t, 1, stats.MappingGaps)
	require.Len(t, services, 2)
	assert.Equal(t, 1, services[0].Sequence)
	assert.Equal(t, 2, services[1].Sequence)
	assert.NoError(t, VerifySequences(services))
}

func TestServicesLegacyIDFallback(t *testing.T) {
	// Rows without a proper operator ID join through the
	// coordinate-derived key instead.
	rows := []parse.BusRow{
		{RouteNumber: "T506", StopID: "", StopName: "Hentian", Latitude: 3.146748, Longitude: 101.662822, Direction: 1},
	}
	stopIDs := map[string]int{"N3146748E101662822": 7}

	services, stats := Services(rows, stopIDs, zerolog.Nop())

	assert.Zero(t, stats.MappingGaps)
	require.Len(t, services, 1)
	assert.Equal(t, 7, services[0].StopID)
}

func TestVerifySequencesBroken(t *testing.T) {
	services := []model.Service{
		{RouteNumber: "506", StopID: 1, Sequence: 1, Direction: 1},
		{RouteNumber: "506", StopID: 2, Sequence: 3, Direction: 1},
	}

	err := VerifySequences(services)
	require.Error(t, err)
	var inv *model.InvariantError
	assert.ErrorAs(t, err, &inv)
}
