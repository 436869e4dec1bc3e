// Package audit runs data-quality checks over the canonical dataset.
package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"kltransit.dev/pipeline/model"
)

// Stops closer than this are suspiciously likely to be the same bay
// recorded twice.
const NearbyThresholdMeters = 10.0

const earthRadiusMeters = 6371e3

// HaversineDistance returns the great-circle distance between two
// points in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

type Neighbor struct {
	Stop     model.Stop `json:"stop"`
	Distance float64    `json:"distance_m"`
	Routes   []string   `json:"routes,omitempty"`
}

// A Group is one stop and every distinct stop within the threshold of
// it. Pairs whose code, name and street all agree are assumed to be
// deliberate co-located bays and are not reported.
type Group struct {
	Anchor       model.Stop `json:"stop"`
	AnchorRoutes []string   `json:"routes,omitempty"`
	Nearby       []Neighbor `json:"nearby"`
}

// FindNearby reports stops suspiciously close to each other. Each
// suspicious pair appears once, under the stop earlier in the input.
func FindNearby(stops []model.Stop, routesByStop map[int][]string, threshold float64) []Group {
	groups := []Group{}
	for i, anchor := range stops {
		var nearby []Neighbor
		for _, other := range stops[i+1:] {
			d := HaversineDistance(anchor.Latitude, anchor.Longitude, other.Latitude, other.Longitude)
			if d >= threshold {
				continue
			}
			if anchor.Code == other.Code && anchor.Name == other.Name && anchor.StreetName == other.StreetName {
				continue
			}
			nearby = append(nearby, Neighbor{
				Stop:     other,
				Distance: math.Round(d*100) / 100,
				Routes:   routesByStop[other.ID],
			})
		}
		if len(nearby) == 0 {
			continue
		}
		sort.Slice(nearby, func(a, b int) bool {
			return nearby[a].Distance < nearby[b].Distance
		})
		groups = append(groups, Group{
			Anchor:       anchor,
			AnchorRoutes: routesByStop[anchor.ID],
			Nearby:       nearby,
		})
	}
	return groups
}

// RenderJSON marshals the groups as the machine-readable report, in
// the same 2-space indent the dataset files use.
func RenderJSON(groups []Group) ([]byte, error) {
	buf, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// RenderTable formats the groups for terminal review.
func RenderTable(groups []Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d stops with close neighbors\n", len(groups))

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(w, "stop %d\t%s\t%s\t%s\troutes %s\n",
			g.Anchor.ID, g.Anchor.Code, g.Anchor.Name, g.Anchor.StreetName,
			strings.Join(g.AnchorRoutes, ","))
		for _, n := range g.Nearby {
			fmt.Fprintf(w, "  %.2fm\tstop %d\t%s\t%s\troutes %s\n",
				n.Distance, n.Stop.ID, n.Stop.Name, n.Stop.StreetName,
				strings.Join(n.Routes, ","))
		}
	}
	w.Flush()
	return b.String()
}
