package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/pipeline/parse"
)

func legacy(id, code, name, street string, lat, lng float64) parse.LegacyStop {
	return parse.LegacyStop{
		StopID:     id,
		Code:       code,
		Name:       name,
		StreetName: street,
		Latitude:   parse.Coordinate(lat),
		Longitude:  parse.Coordinate(lng),
	}
}

func TestResolveCoordinateMatch(t *testing.T) {
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3146748E101662822", "KL1234", "KL1234 HENTIAN", "JLN AMPANG", 3.146748, 101.662822),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1002013", Name: "Hentian", Latitude: 3.146750, Longitude: 101.662820},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 1, res.Stops[0].ID)
	assert.Equal(t, 1002013, res.Stops[0].RapidStopID)
	assert.Equal(t, 0, res.Stops[0].MRTStopID)
	assert.Equal(t, "N3146748E101662822", res.Stops[0].OldStopID)
	assert.Equal(t, 1, res.LegacyToCanonical["N3146748E101662822"])
	assert.Equal(t, 1, res.LegacyToCanonical["1002013"])
}

func TestResolveBeyondEpsilonNoMatch(t *testing.T) {
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3146748E101662822", "", "Somewhere", "", 3.146748, 101.662822),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1002013", Latitude: 3.146800, Longitude: 101.662822},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 0, res.Stops[0].RapidStopID)
	assert.Equal(t, 1, res.Report.NoID)
}

func TestResolveIdenticalDuplicatesAutoMerge(t *testing.T) {
	// Two exports of the same bay, coordinates differing by less
	// than the identity tolerance. They collapse into one stop
	// with both legacy keys in the audit trail.
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3146748E101662822", "KL1234", "KL1234 HENTIAN", "JLN AMPANG", 3.146748, 101.662822),
			legacy("N3146749E101662823", "KL1234", "KL1234 HENTIAN", "JLN AMPANG", 3.146749, 101.662823),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1002013", Latitude: 3.146748, Longitude: 101.662822},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 1002013, res.Stops[0].RapidStopID)
	assert.Equal(t, "N3146748E101662822,N3146749E101662823", res.Stops[0].OldStopID)
	assert.Equal(t, 1, res.Report.RapidDuplicates)
	assert.Equal(t, 1, res.Report.AutoMerged)
	assert.Empty(t, res.Report.Ambiguous)
	assert.Equal(t, 1, res.LegacyToCanonical["N3146749E101662823"])
}

func TestResolveOverride(t *testing.T) {
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3149000E101700000", "", "Stesen Sentral", "", 3.149000, 101.700000),
		},
		Overrides: map[string]Override{
			"N3149000E101700000": {MRTID: "12001849"},
		},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 12001849, res.Stops[0].MRTStopID)
	assert.Equal(t, 0, res.Stops[0].RapidStopID)
	assert.Equal(t, 1, res.LegacyToCanonical["12001849"])
}

func TestResolveBusFallback(t *testing.T) {
	// No catalog match, but a raw route row at the same location
	// already carries a proper numeric operator ID.
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3150000E101680000", "", "Pasar Seni", "", 3.150000, 101.680000),
		},
		BusRows: []parse.BusRow{
			{RouteNumber: "506", StopID: "1008084", StopName: "Pasar Seni", Latitude: 3.150000, Longitude: 101.680000, Direction: 1},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 1008084, res.Stops[0].RapidStopID)
}

func TestResolveNoRapidSuppressesFallback(t *testing.T) {
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3150606E101691297", "", "Bekas Hentian", "", 3.150606, 101.691297),
		},
		BusRows: []parse.BusRow{
			{RouteNumber: "506", StopID: "1008084", StopName: "Pasar Seni", Latitude: 3.150606, Longitude: 101.691297, Direction: 1},
		},
		Overrides: map[string]Override{
			"N3150606E101691297": {NoRapid: true},
		},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 0, res.Stops[0].RapidStopID)
	assert.Equal(t, 1, res.Report.NoID)
}

func TestResolveExpressOverlayTieBreak(t *testing.T) {
	// Same Rapid ID claimed by two different records, each served
	// by exactly one route, one of them the express overlay. The
	// regular route's record wins.
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3151000E101690000", "KL1111", "KL1111 EXPRESS BAY", "JLN TUN PERAK", 3.151000, 101.690000),
			legacy("N3151001E101690001", "KL1111", "KL1111 HENTIAN BESAR", "JLN TUN PERAK", 3.151200, 101.690200),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1008084", Latitude: 3.151000, Longitude: 101.690000},
			{ID: "1008084", Latitude: 3.151200, Longitude: 101.690200},
		},
		BusRows: []parse.BusRow{
			{RouteNumber: "T506", StopID: "N3151000E101690000", Direction: 1},
			{RouteNumber: "506", StopID: "N3151001E101690001", Direction: 1},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, "KL1111 HENTIAN BESAR", res.Stops[0].Name)
	assert.Equal(t, 1008084, res.Stops[0].RapidStopID)
	assert.Equal(t, "N3151000E101690000,N3151001E101690001", res.Stops[0].OldStopID)
	assert.Equal(t, 1, res.Report.AutoMerged)
}

func TestResolveAmbiguousKeptApart(t *testing.T) {
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("N3152000E101690000", "KL2222", "KL2222 UTARA", "JLN IPOH", 3.152000, 101.690000),
			legacy("N3152001E101690001", "KL3333", "KL3333 SELATAN", "JLN IPOH", 3.152300, 101.690300),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1009999", Latitude: 3.152000, Longitude: 101.690000},
			{ID: "1009999", Latitude: 3.152300, Longitude: 101.690300},
		},
		BusRows: []parse.BusRow{
			{RouteNumber: "100", StopID: "N3152000E101690000", Direction: 1},
			{RouteNumber: "200", StopID: "N3152000E101690000", Direction: 1},
			{RouteNumber: "100", StopID: "N3152001E101690001", Direction: 1},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 2)
	assert.Equal(t, 1009999, res.Stops[0].RapidStopID)
	assert.Equal(t, 1009999, res.Stops[1].RapidStopID)

	require.Len(t, res.Report.Ambiguous, 1)
	g := res.Report.Ambiguous[0]
	assert.Equal(t, "rapid", g.Space)
	assert.Equal(t, "1009999", g.ID)
	require.Len(t, g.Members, 2)
	assert.Equal(t, []string{"100", "200"}, g.Members[0].Routes)

	// 1009999 maps to the first member's canonical stop.
	assert.Equal(t, 1, res.LegacyToCanonical["1009999"])
	assert.Equal(t, 2, res.LegacyToCanonical["N3152001E101690001"])
}

func TestResolveSequentialIDAssignment(t *testing.T) {
	// Rapid groups first in source order, then MRT-only groups,
	// then stops with no operator identity at all.
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("nA", "", "No ID", "", 3.100000, 101.600000),
			legacy("mA", "", "Rail Only", "", 3.200000, 101.700000),
			legacy("rA", "", "Bus A", "", 3.300000, 101.800000),
			legacy("rB", "", "Bus B", "", 3.400000, 101.900000),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1000001", Latitude: 3.300000, Longitude: 101.800000},
			{ID: "1000002", Latitude: 3.400000, Longitude: 101.900000},
		},
		MRTStops: []parse.CatalogStop{
			{ID: "12000001", Latitude: 3.200000, Longitude: 101.700000},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 4)
	assert.Equal(t, 1000001, res.Stops[0].RapidStopID)
	assert.Equal(t, 1000002, res.Stops[1].RapidStopID)
	assert.Equal(t, 12000001, res.Stops[2].MRTStopID)
	assert.Equal(t, "nA", res.Stops[3].OldStopID)
	for i, s := range res.Stops {
		assert.Equal(t, i+1, s.ID)
	}
}

func TestResolveRapidAndMRTSameStop(t *testing.T) {
	// An interchange bay present in both catalogs yields a single
	// canonical stop carrying both operator IDs.
	res := Resolve(Input{
		LegacyStops: []parse.LegacyStop{
			legacy("iA", "", "Interchange", "", 3.250000, 101.750000),
		},
		RapidStops: []parse.CatalogStop{
			{ID: "1000005", Latitude: 3.250000, Longitude: 101.750000},
		},
		MRTStops: []parse.CatalogStop{
			{ID: "12000005", Latitude: 3.250000, Longitude: 101.750000},
		},
		Overrides: map[string]Override{},
	})

	require.Len(t, res.Stops, 1)
	assert.Equal(t, 1000005, res.Stops[0].RapidStopID)
	assert.Equal(t, 12000005, res.Stops[0].MRTStopID)
	assert.Equal(t, 1, res.LegacyToCanonical["1000005"])
	assert.Equal(t, 1, res.LegacyToCanonical["12000005"])
}

func TestVerifyConservation(t *testing.T) {
	stops := []parse.LegacyStop{
		legacy("a", "", "A", "", 3.1, 101.6),
		legacy("b", "", "B", "", 3.2, 101.7),
	}
	res := Resolve(Input{LegacyStops: stops, Overrides: map[string]Override{}})
	assert.NoError(t, VerifyConservation(stops, res.Stops))

	// Dropping a stop breaks the invariant.
	err := VerifyConservation(stops, res.Stops[:1])
	assert.Error(t, err)
}
