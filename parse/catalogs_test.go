package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRapidStops(t *testing.T) {
	csv := `stop_id,stop_name,stop_desc,stop_lat,stop_lon
1002013,Hentian Lebuhraya,Jalan Ampang,3.146748,101.662822
1008084, Hentian Tun Perak , Jalan Tun Perak ,3.151000,101.690000
`
	stops, err := ParseRapidStops(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, stops, 2)

	assert.Equal(t, CatalogStop{
		ID:         "1002013",
		Name:       "Hentian Lebuhraya",
		StreetName: "Jalan Ampang",
		Latitude:   3.146748,
		Longitude:  101.662822,
	}, stops[0])
	assert.Equal(t, "Hentian Tun Perak", stops[1].Name)
}

func TestParseMRTStops(t *testing.T) {
	csv := `stop_id,stop_code,stop_name,stop_lat,stop_lon
12001849,KG15,Muzium Negara,3.137300,101.687100
`
	stops, err := ParseMRTStops(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "KG15", stops[0].Code)
	assert.Equal(t, "Muzium Negara", stops[0].Name)
}

func TestMRTNameToCode(t *testing.T) {
	codes := MRTNameToCode([]CatalogStop{
		{ID: "12001849", Code: "KG15", Name: "Muzium Negara"},
		{ID: "12003067", Code: "", Name: "Nameless Code"},
		{ID: "12003068", Code: "KG17", Name: ""},
	})
	assert.Equal(t, map[string]string{"Muzium Negara": "KG15"}, codes)
}

func TestParseLegacyStops(t *testing.T) {
	// Coordinates arrive as numbers in some vintages and strings in
	// others.
	data := `[
  {"stop_id": "N3146748E101662822", "stop_code": "KL1234", "stop_name": "HENTIAN", "street_name": "JLN AMPANG", "latitude": 3.146748, "longitude": 101.662822},
  {"stop_id": "N3150000E101690000", "stop_code": "", "stop_name": "HENTIAN LAIN", "street_name": "", "latitude": "3.150000", "longitude": "101.690000"}
]`
	stops, err := ParseLegacyStops(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, Coordinate(3.146748), stops[0].Latitude)
	assert.Equal(t, Coordinate(101.690000), stops[1].Longitude)
}

func TestParseLegacyStopsEmptyID(t *testing.T) {
	data := `[{"stop_id": "", "stop_name": "X", "latitude": 3.1, "longitude": 101.6}]`
	_, err := ParseLegacyStops(strings.NewReader(data))
	assert.Error(t, err)
}

func TestParseRouteIndex(t *testing.T) {
	data := `{
  "506": {"route_name": "Kota Damansara ⇌ Hab Pasar Seni", "route_type": "utama"},
  "T506": {"route_name": "MRT Kwasa Damansara ↺", "route_type": "mrt_feeder"}
}`
	index, err := ParseRouteIndex(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, "utama", index["506"].RouteType)
	assert.Equal(t, "MRT Kwasa Damansara ↺", index["T506"].RouteName)
}
