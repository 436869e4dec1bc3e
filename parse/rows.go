package parse

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"kltransit.dev/pipeline/model"
)

// One raw row of the per-route export: a single route visiting a
// single stop. Row order within a route+direction is assumed to be
// stop visitation order; the export carries no sequence column to
// check this against.
type BusRow struct {
	RouteNumber string  `csv:"route_number"`
	StopID      string  `csv:"stop_id"`
	StopName    string  `csv:"stop_name"`
	StreetName  string  `csv:"street_name"`
	Latitude    float64 `csv:"latitude"`
	Longitude   float64 `csv:"longitude"`
	Direction   int     `csv:"direction"`
	Zone        int     `csv:"zone"`
}

// LegacyID is the row's identity in the legacy ID space: the raw
// stop_id when the export carries one (numeric operator ID or
// coordinate-derived key), otherwise a synthetic ID built from the
// row's coordinates.
func (r *BusRow) LegacyID() string {
	id := strings.TrimSpace(r.StopID)
	if id != "" {
		return id
	}
	return GenerateStopID(r.Latitude, r.Longitude)
}

// ParseBusRows reads the per-route stop rows export.
func ParseBusRows(data io.Reader) ([]BusRow, error) {
	rows := []*BusRow{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling bus rows csv")
	}

	out := make([]BusRow, 0, len(rows))
	for i, r := range rows {
		if r.RouteNumber == "" {
			return nil, model.Invariant("parse", "bus row %d has empty route_number", i+1)
		}
		if r.Direction != model.ServiceDirectionOutbound && r.Direction != model.ServiceDirectionInbound {
			return nil, model.Invariant("parse", "bus row %d (route %s) has direction %d", i+1, r.RouteNumber, r.Direction)
		}
		r.RouteNumber = strings.TrimSpace(r.RouteNumber)
		r.StopName = strings.TrimSpace(r.StopName)
		r.StreetName = strings.TrimSpace(r.StreetName)
		out = append(out, *r)
	}
	return out, nil
}

// GenerateStopID derives the synthetic coordinate ID for a stop:
// hemisphere prefixes followed by the absolute coordinate at 6
// decimal digits with the point dropped, e.g. (3.146748, 101.662822)
// becomes "N3146748E101662822". Pure and injective down to ~0.11m.
func GenerateStopID(lat, lng float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
		lat = -lat
	}
	if lng < 0 {
		ew = "W"
		lng = -lng
	}
	latDigits := strings.Replace(fmt.Sprintf("%.6f", lat), ".", "", 1)
	lngDigits := strings.Replace(fmt.Sprintf("%.6f", lng), ".", "", 1)
	return ns + latDigits + ew + lngDigits
}

// Operator code prefixes seen in the wild. Longer prefixes first so
// "PPJ123" matches PPJ rather than PJ.
var stopCodeRe = regexp.MustCompile(`(PPJ|KL|PJ|SJ|SA|SL|SP|AJ|KS|LG|KJ|BD)[\s-]*?([0-9]+)`)

var residualPunctRe = regexp.MustCompile(`^[\s,\-]+|[\s,\-]+$`)

// ExtractStopCode finds an embedded operator code in a raw stop name
// and strips it from the display name. When stripping the code leaves
// nothing behind, the original name is kept. Returns the empty code
// when no code is embedded.
func ExtractStopCode(name string) (code string, cleanName string) {
	name = strings.TrimSpace(name)

	m := stopCodeRe.FindStringSubmatch(name)
	if m == nil {
		return "", name
	}
	code = m[1] + m[2]

	cleanName = strings.TrimSpace(strings.Replace(name, m[0], "", 1))
	cleanName = residualPunctRe.ReplaceAllString(cleanName, "")
	if cleanName == "" {
		return code, name
	}
	return code, cleanName
}

// Event shuttles, depot moves and other non-regular services that
// must never produce passenger-facing service records.
var skippedRouteLiterals = map[string]bool{
	"PARASUKMA SARAWAK 2024": true,
	"MS04":                   true,
	"MS05":                   true,
}

func ShouldSkipRoute(routeNumber string) bool {
	return strings.HasSuffix(routeNumber, "B") ||
		strings.Contains(routeNumber, "(OS)") ||
		strings.HasPrefix(routeNumber, "SEWA") ||
		strings.HasPrefix(routeNumber, "KTM") ||
		strings.HasPrefix(routeNumber, "GP") ||
		strings.Contains(routeNumber, "MAHA") ||
		skippedRouteLiterals[routeNumber]
}

// A structured stop derived from the raw per-route rows.
type ExtractedStop struct {
	LegacyID   string
	Code       string
	Name       string
	StreetName string
	Latitude   float64
	Longitude  float64
	Direction  int
	Zone       int
}

// ExtractStops derives one structured stop per distinct raw identity,
// in row-encounter order. MRT station names are resolved to codes
// through the catalog mapping before prefix matching kicks in.
func ExtractStops(rows []BusRow, mrtCodes map[string]string) []ExtractedStop {
	seen := map[string]bool{}
	stops := []ExtractedStop{}

	for _, row := range rows {
		id := row.LegacyID()
		if seen[id] {
			continue
		}
		seen[id] = true

		code, name := "", strings.TrimSpace(row.StopName)
		if mrtCode, found := mrtCodes[name]; found {
			code = mrtCode
		} else {
			code, name = ExtractStopCode(name)
		}

		stops = append(stops, ExtractedStop{
			LegacyID:   id,
			Code:       code,
			Name:       name,
			StreetName: row.StreetName,
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			Direction:  row.Direction,
			Zone:       row.Zone,
		})
	}

	return stops
}

// RoutesByLegacyID maps each raw stop identity to the distinct route
// numbers serving it, in encounter order. The resolver's tie-break
// heuristics key off these route sets.
func RoutesByLegacyID(rows []BusRow) map[string][]string {
	routes := map[string][]string{}
	for _, row := range rows {
		id := row.LegacyID()
		if !containsString(routes[id], row.RouteNumber) {
			routes[id] = append(routes[id], row.RouteNumber)
		}
	}
	return routes
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
