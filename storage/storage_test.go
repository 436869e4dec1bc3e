package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/pipeline/model"
)

func testStorage(t *testing.T, s Storage) {
	t.Helper()

	stops := []model.Stop{
		{ID: 1, Code: "KL1234", Name: "Hentian A", StreetName: "Jalan Ampang",
			Latitude: 3.146748, Longitude: 101.662822,
			RapidStopID: 1002013, OldStopID: "N3146748E101662822"},
		{ID: 2, Name: "Stesen B", Latitude: 3.2, Longitude: 101.7,
			MRTStopID: 12001849, OldStopID: "N3200000E101700000"},
		{ID: 3, Name: "Hentian C", Latitude: 3.3, Longitude: 101.8,
			OldStopID: "N3300000E101800000"},
	}
	require.NoError(t, s.WriteStops(stops))

	services := []model.Service{
		{RouteNumber: "506", StopID: 1, Sequence: 1, Direction: 1, Zone: 1},
		{RouteNumber: "506", StopID: 2, Sequence: 2, Direction: 1, Zone: 1},
		{RouteNumber: "MAHA2024", StopID: 3, Sequence: 1, Direction: 1, Zone: 2},
	}
	require.NoError(t, s.WriteServices(services))

	dist := 1234.5
	routes := []model.Route{
		{RouteID: 1, RouteShortName: "506", RouteLongName: "Kota Damansara ⇌ Hab Pasar Seni",
			OperatorID: "rapid_bus", NetworkID: "utama", RouteType: 3,
			RouteColor: "dc241f", RouteTextColor: "ffffff",
			Trips: []model.Trip{
				{TripID: 1, RouteID: 1, Headsign: "Kota Damansara", Direction: 0, IsActive: true,
					FullShape:   "_p~iF~ps|U",
					StopDetails: []model.StopDetail{{StopID: 1, FareZone: 1}, {StopID: 2, FareZone: 1}},
					StopPairSegments: []model.StopPairSegment{
						{FromStopID: 1, ToStopID: 2, Distance: &dist},
					},
				},
			}},
		{RouteID: 2, RouteShortName: "MAHA2024", RouteLongName: "MAHA Shuttle", RouteType: 3,
			RouteColor: "666666", RouteTextColor: "ffffff"},
	}
	require.NoError(t, s.WriteRoutes(routes))

	gotStops, err := s.Stops()
	require.NoError(t, err)
	assert.Equal(t, stops, gotStops)

	gotServices, err := s.Services()
	require.NoError(t, err)
	assert.ElementsMatch(t, services, gotServices)

	gotRoutes, err := s.Routes()
	require.NoError(t, err)
	require.Len(t, gotRoutes, 2)
	assert.Equal(t, routes[0].RouteLongName, gotRoutes[0].RouteLongName)
	require.Len(t, gotRoutes[0].Trips, 1)
	trip := gotRoutes[0].Trips[0]
	assert.Equal(t, "Kota Damansara", trip.Headsign)
	require.Len(t, trip.StopPairSegments, 1)
	require.NotNil(t, trip.StopPairSegments[0].Distance)
	assert.Equal(t, 1234.5, *trip.StopPairSegments[0].Distance)
	assert.Nil(t, trip.StopPairSegments[0].SegmentShape)
	assert.Empty(t, gotRoutes[1].Trips)

	// Writing again is an update, not a duplicate.
	stops[0].Name = "Hentian A Baru"
	require.NoError(t, s.WriteStops(stops[:1]))
	gotStops, err = s.Stops()
	require.NoError(t, err)
	require.Len(t, gotStops, 3)
	assert.Equal(t, "Hentian A Baru", gotStops[0].Name)

	deleted, err := s.DeleteRoutesWhere(func(name string) bool {
		return name == "MAHA2024"
	})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	gotRoutes, err = s.Routes()
	require.NoError(t, err)
	require.Len(t, gotRoutes, 1)
	assert.Equal(t, "506", gotRoutes[0].RouteShortName)
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	testStorage(t, s)
}

func TestSQLiteStorage(t *testing.T) {
	s, err := NewSQLiteStorage("")
	require.NoError(t, err)
	defer s.Close()
	testStorage(t, s)
}
