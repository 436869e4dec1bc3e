package parse

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// A stop record from one of the operator catalogs (Rapid or MRT).
type CatalogStop struct {
	ID         string
	Code       string
	Name       string
	StreetName string
	Latitude   float64
	Longitude  float64
}

type rapidStopCSV struct {
	ID   string  `csv:"stop_id"`
	Name string  `csv:"stop_name"`
	Desc string  `csv:"stop_desc"`
	Lat  float64 `csv:"stop_lat"`
	Lon  float64 `csv:"stop_lon"`
}

type mrtStopCSV struct {
	ID   string  `csv:"stop_id"`
	Code string  `csv:"stop_code"`
	Name string  `csv:"stop_name"`
	Lat  float64 `csv:"stop_lat"`
	Lon  float64 `csv:"stop_lon"`
}

// ParseRapidStops reads the Rapid operator catalog. The stop_desc
// column carries the street name.
func ParseRapidStops(data io.Reader) ([]CatalogStop, error) {
	rows := []*rapidStopCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling rapid stops csv: %w", err)
	}

	stops := make([]CatalogStop, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("rapid stop with empty stop_id")
		}
		stops = append(stops, CatalogStop{
			ID:         strings.TrimSpace(r.ID),
			Name:       strings.TrimSpace(r.Name),
			StreetName: strings.TrimSpace(r.Desc),
			Latitude:   r.Lat,
			Longitude:  r.Lon,
		})
	}
	return stops, nil
}

// ParseMRTStops reads the rail operator catalog.
func ParseMRTStops(data io.Reader) ([]CatalogStop, error) {
	rows := []*mrtStopCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling mrt stops csv: %w", err)
	}

	stops := make([]CatalogStop, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("mrt stop with empty stop_id")
		}
		stops = append(stops, CatalogStop{
			ID:        strings.TrimSpace(r.ID),
			Code:      strings.TrimSpace(r.Code),
			Name:      strings.TrimSpace(r.Name),
			Latitude:  r.Lat,
			Longitude: r.Lon,
		})
	}
	return stops, nil
}

// MRTNameToCode maps catalog stop names to their operator codes, used
// during stop extraction before falling back to prefix matching.
func MRTNameToCode(stops []CatalogStop) map[string]string {
	codes := map[string]string{}
	for _, s := range stops {
		if s.Name != "" && s.Code != "" {
			codes[s.Name] = s.Code
		}
	}
	return codes
}

// A stop from the legacy relational dump, keyed by a
// coordinate-derived string ID.
type LegacyStop struct {
	StopID     string     `json:"stop_id"`
	Code       string     `json:"stop_code"`
	Name       string     `json:"stop_name"`
	StreetName string     `json:"street_name"`
	Latitude   Coordinate `json:"latitude"`
	Longitude  Coordinate `json:"longitude"`
}

// Some dump vintages carry coordinates as strings, some as numbers.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", string(data), err)
	}
	*c = Coordinate(v)
	return nil
}

// ParseLegacyStops reads the legacy coordinate-keyed JSON dump, the
// primary source of the identity resolver.
func ParseLegacyStops(data io.Reader) ([]LegacyStop, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("reading legacy stops: %w", err)
	}

	stops := []LegacyStop{}
	if err := json.Unmarshal(buf, &stops); err != nil {
		return nil, fmt.Errorf("unmarshaling legacy stops: %w", err)
	}

	for i, s := range stops {
		if s.StopID == "" {
			return nil, fmt.Errorf("legacy stop %d has empty stop_id", i)
		}
	}

	return stops, nil
}

// RouteInfo is one entry of the curated route index.
type RouteInfo struct {
	RouteName string `json:"route_name"`
	RouteType string `json:"route_type"`
}

// ParseRouteIndex reads the route index: route number to name and
// network classification.
func ParseRouteIndex(data io.Reader) (map[string]RouteInfo, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("reading route index: %w", err)
	}

	index := map[string]RouteInfo{}
	if err := json.Unmarshal(buf, &index); err != nil {
		return nil, fmt.Errorf("unmarshaling route index: %w", err)
	}

	return index, nil
}
