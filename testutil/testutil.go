// Package testutil provides a small but complete fixture dataset for
// pipeline tests: nine legacy stops exercising coordinate matching,
// overrides, duplicate tie-breaks, ambiguity and the no-ID path.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"kltransit.dev/pipeline/parse"
	"kltransit.dev/pipeline/resolve"
)

const LegacyStopsJSON = `[
  {"stop_id": "N3146748E101662822", "stop_code": "KL1234", "stop_name": "HENTIAN LEBUHRAYA", "street_name": "JLN AMPANG", "latitude": 3.146748, "longitude": 101.662822},
  {"stop_id": "N3146749E101662823", "stop_code": "KL1234", "stop_name": "HENTIAN LEBUHRAYA", "street_name": "JLN AMPANG", "latitude": "3.146749", "longitude": "101.662823"},
  {"stop_id": "N3139000E101686000", "stop_code": "", "stop_name": "STESEN SENTRAL", "street_name": "JLN STESEN SENTRAL", "latitude": 3.139000, "longitude": 101.686000},
  {"stop_id": "N3140000E101690000", "stop_code": "KG16", "stop_name": "MUZIUM NEGARA", "street_name": "JLN DAMANSARA", "latitude": 3.140000, "longitude": 101.690000},
  {"stop_id": "N3160000E101650000", "stop_code": "", "stop_name": "HENTIAN HARAPAN", "street_name": "LRG HARAPAN", "latitude": 3.160000, "longitude": 101.650000},
  {"stop_id": "N3151000E101690000", "stop_code": "KL1111", "stop_name": "HENTIAN EKSPRES", "street_name": "JLN TUN PERAK", "latitude": 3.151000, "longitude": 101.690000},
  {"stop_id": "N3151001E101690001", "stop_code": "KL1111", "stop_name": "HENTIAN BESAR", "street_name": "JLN TUN PERAK", "latitude": 3.151001, "longitude": 101.690001},
  {"stop_id": "N3152000E101695000", "stop_code": "KL2222", "stop_name": "HENTIAN UTARA", "street_name": "JLN IPOH", "latitude": 3.152000, "longitude": 101.695000},
  {"stop_id": "N3152300E101695300", "stop_code": "KL3333", "stop_name": "HENTIAN SELATAN", "street_name": "JLN IPOH", "latitude": 3.152300, "longitude": 101.695300}
]`

const RapidStopsCSV = `stop_id,stop_name,stop_desc,stop_lat,stop_lon
1002013,Hentian Lebuhraya,Jalan Ampang,3.146748,101.662822
1008084,Hentian Tun Perak,Jalan Tun Perak,3.151000,101.690000
1008084,Hentian Tun Perak,Jalan Tun Perak,3.151001,101.690001
1009999,Hentian Ipoh,Jalan Ipoh,3.152000,101.695000
1009999,Hentian Ipoh,Jalan Ipoh,3.152300,101.695300
`

const MRTStopsCSV = `stop_id,stop_code,stop_name,stop_lat,stop_lon
12001849,KG15,Muzium Negara,3.137300,101.687100
12003067,KG16,Muzium Negara Timur,3.140000,101.690000
`

const BusRowsCSV = `route_number,stop_id,stop_name,street_name,latitude,longitude,direction,zone
506,,KL1111 HENTIAN BESAR,JLN TUN PERAK,3.151001,101.690001,1,1
506,,KL1234 HENTIAN LEBUHRAYA,JLN AMPANG,3.146748,101.662822,1,1
506,,KL2222 UTARA,JLN IPOH,3.152000,101.695000,1,1
506,,KL3333 SELATAN,JLN IPOH,3.152300,101.695300,1,2
506,,HENTIAN HARAPAN,LRG HARAPAN,3.160000,101.650000,1,2
506,,KL1234 HENTIAN LEBUHRAYA,JLN AMPANG,3.146748,101.662822,1,1
506,,HENTIAN HILANG,JLN MISTERI,3.170000,101.640000,1,2
506,,HENTIAN HARAPAN,LRG HARAPAN,3.160000,101.650000,2,2
506,,KL1234 HENTIAN LEBUHRAYA,JLN AMPANG,3.146748,101.662822,2,1
T506,,KL1111 HENTIAN EKSPRES,JLN TUN PERAK,3.151000,101.690000,1,1
T506,,MUZIUM NEGARA,JLN DAMANSARA,3.140000,101.690000,1,1
100,,KL2222 UTARA,JLN IPOH,3.152000,101.695000,1,1
100,,STESEN SENTRAL,JLN STESEN SENTRAL,3.139000,101.686000,1,1
MAHA2024,,KL1234 HENTIAN LEBUHRAYA,JLN AMPANG,3.146748,101.662822,1,1
`

const ShapesCSV = `route_number,direction,sequence,latitude,longitude
506,1,1,3.151001,101.690001
506,1,2,3.146748,101.662822
506,1,3,3.160000,101.650000
506,2,1,3.160000,101.650000
506,2,2,3.146748,101.662822
T506,1,1,3.151000,101.690000
T506,1,2,3.140000,101.690000
`

const RouteIndexJSON = `{
  "506": {"route_name": "Kota Damansara ⇌ Hab Pasar Seni", "route_type": "utama"},
  "T506": {"route_name": "MRT Kwasa Damansara ↺", "route_type": "mrt_feeder"},
  "100": {"route_name": "Terminal Kajang", "route_type": "tempatan"},
  "MAHA2024": {"route_name": "MAHA Shuttle", "route_type": "shuttle"}
}`

// Overrides returns the override table the fixture expects: the
// Sentral stop joined to its MRT identity by hand.
func Overrides() map[string]resolve.Override {
	return map[string]resolve.Override{
		"N3139000E101686000": {MRTID: "12001849"},
	}
}

// WriteFixtures writes the fixture dataset into dir and returns the
// paths for LoadSources.
func WriteFixtures(t testing.TB, dir string) parse.SourcePaths {
	t.Helper()

	files := map[string]string{
		"legacy_stops.json": LegacyStopsJSON,
		"rapid_stops.csv":   RapidStopsCSV,
		"mrt_stops.csv":     MRTStopsCSV,
		"all_bus_stops.csv": BusRowsCSV,
		"shapes.csv":        ShapesCSV,
		"routes.json":       RouteIndexJSON,
	}
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
		require.NoError(t, err)
	}

	return parse.SourcePaths{
		LegacyStops: filepath.Join(dir, "legacy_stops.json"),
		RapidStops:  filepath.Join(dir, "rapid_stops.csv"),
		MRTStops:    filepath.Join(dir, "mrt_stops.csv"),
		BusRows:     filepath.Join(dir, "all_bus_stops.csv"),
		Shapes:      filepath.Join(dir, "shapes.csv"),
		Routes:      filepath.Join(dir, "routes.json"),
	}
}
