package build

import (
	"strings"

	"github.com/twpayne/go-polyline"

	"kltransit.dev/pipeline/model"
)

// Trips assembles the per-direction trips for every route: headsign
// derived from the route long name, stop details joined from the
// service table, and the road geometry as an encoded polyline. A
// direction gets a trip only when it has both services and a recorded
// shape. Trip IDs are a plain counter over the sorted route list.
// Segment slots between consecutive stops are allocated empty and
// filled later by the road router.
func Trips(routes []model.Route, services []model.Service, shapes []model.Shape) error {
	zones := map[int]int{}
	for _, s := range services {
		if s.Zone != 0 {
			zones[s.StopID] = s.Zone
		}
	}

	type dirKey struct {
		route     string
		direction int
	}
	stopsByDir := map[dirKey][]int{}
	for _, s := range services {
		k := dirKey{s.RouteNumber, s.Direction}
		stopsByDir[k] = append(stopsByDir[k], s.StopID)
	}
	shapesByDir := map[dirKey]model.Shape{}
	for _, sh := range shapes {
		shapesByDir[dirKey{sh.RouteNumber, sh.Direction}] = sh
	}

	nextTripID := 1
	for i := range routes {
		route := &routes[i]
		for _, dir := range []int{model.ServiceDirectionOutbound, model.ServiceDirectionInbound} {
			k := dirKey{route.RouteShortName, dir}
			stopIDs, hasStops := stopsByDir[k]
			shape, hasShape := shapesByDir[k]
			if !hasStops || !hasShape {
				continue
			}

			tripDir, err := model.TripDirection(dir)
			if err != nil {
				return err
			}

			trip := model.Trip{
				TripID:    nextTripID,
				RouteID:   route.RouteID,
				Headsign:  Headsign(route.RouteLongName, dir),
				Direction: tripDir,
				IsActive:  true,
			}
			nextTripID++
			trip.FullShape = EncodeShape(shape.Coordinates)

			for _, stopID := range stopIDs {
				trip.StopDetails = append(trip.StopDetails, model.StopDetail{
					StopID:   stopID,
					FareZone: zones[stopID],
				})
			}
			for j := 1; j < len(stopIDs); j++ {
				trip.StopPairSegments = append(trip.StopPairSegments, model.StopPairSegment{
					FromStopID: stopIDs[j-1],
					ToStopID:   stopIDs[j],
				})
			}

			route.Trips = append(route.Trips, trip)
		}
	}
	return nil
}

// Headsign extracts the destination text for one direction from a
// route's long name. "A ⇌ B" names split per direction, circular "A ↺"
// names use the text before the loop glyph, and anything else is the
// destination for both directions.
func Headsign(longName string, direction int) string {
	if strings.Contains(longName, "⇌") {
		parts := strings.Split(longName, "⇌")
		if direction >= 1 && direction <= len(parts) {
			return strings.TrimSpace(parts[direction-1])
		}
		return strings.TrimSpace(parts[0])
	}
	if idx := strings.Index(longName, "↺"); idx >= 0 {
		return strings.TrimSpace(longName[:idx])
	}
	return strings.TrimSpace(longName)
}

// EncodeShape encodes [longitude, latitude] pairs as a standard
// lat-first polyline.
func EncodeShape(coords [][2]float64) string {
	latFirst := make([][]float64, len(coords))
	for i, c := range coords {
		latFirst[i] = []float64{c[1], c[0]}
	}
	return string(polyline.EncodeCoords(latFirst))
}

// DecodeShape is the inverse of EncodeShape, back to [longitude,
// latitude] order.
func DecodeShape(encoded string) ([][2]float64, error) {
	latFirst, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	coords := make([][2]float64, len(latFirst))
	for i, c := range latFirst {
		coords[i] = [2]float64{c[1], c[0]}
	}
	return coords, nil
}
