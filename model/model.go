package model

import (
	"fmt"
	"strings"
)

// Holds all external facing types for the canonical dataset.

// Direction encoding differs between the raw exports and the v2 trip
// schema. Raw services use 1/2, trips use 0/1. TripDirection pins the
// mapping in one place.
const (
	ServiceDirectionOutbound = 1
	ServiceDirectionInbound  = 2
)

func TripDirection(serviceDirection int) (int, error) {
	switch serviceDirection {
	case ServiceDirectionOutbound:
		return 0, nil
	case ServiceDirectionInbound:
		return 1, nil
	}
	return 0, fmt.Errorf("invalid service direction %d", serviceDirection)
}

// A canonical stop: one record per physical boarding location, merged
// from the legacy coordinate-keyed dump and the operator catalogs.
// Created once during resolution and never mutated afterward.
type Stop struct {
	ID          int     `json:"stop_id" csv:"stop_id"`
	Code        string  `json:"stop_code,omitempty" csv:"stop_code"`
	Name        string  `json:"stop_name" csv:"stop_name"`
	StreetName  string  `json:"street_name,omitempty" csv:"street_name"`
	Latitude    float64 `json:"latitude" csv:"latitude"`
	Longitude   float64 `json:"longitude" csv:"longitude"`
	RapidStopID int     `json:"rapid_stop_id,omitempty" csv:"-"`
	MRTStopID   int     `json:"mrt_stop_id,omitempty" csv:"-"`

	// Comma-joined legacy coordinate-derived IDs merged into this
	// stop. Audit trail only; never used for lookups after
	// resolution.
	OldStopID string `json:"old_stop_id" csv:"-"`
}

// The legacy IDs merged into this stop.
func (s *Stop) OldStopIDs() []string {
	if s.OldStopID == "" {
		return nil
	}
	parts := strings.Split(s.OldStopID, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// A stop↔route↔direction↔sequence association. For a fixed route and
// direction, Sequence is a contiguous 1..N range in stop visitation
// order.
type Service struct {
	RouteNumber string `json:"route_number" csv:"route_number"`
	StopID      int    `json:"stop_id" csv:"stop_id"`
	Sequence    int    `json:"sequence" csv:"sequence"`
	Direction   int    `json:"direction" csv:"direction"`
	Zone        int    `json:"zone" csv:"zone"`
}

// A route in the v2 schema, with embedded trips.
type Route struct {
	RouteID        int    `json:"routeId"`
	RouteShortName string `json:"routeShortName"`
	RouteLongName  string `json:"routeLongName"`
	OperatorID     string `json:"operatorId"`
	NetworkID      string `json:"networkId"`
	RouteType      int    `json:"routeType"`
	RouteColor     string `json:"routeColor"`
	RouteTextColor string `json:"routeTextColor"`
	Trips          []Trip `json:"trips"`
}

// Swaps headsign and shape between the two trips of a bidirectional
// route. Manual repair for feeds whose directions arrive flipped.
// Routes without exactly two trips are left alone.
func (r *Route) SwapTrips() {
	if len(r.Trips) != 2 {
		return
	}
	t0, t1 := &r.Trips[0], &r.Trips[1]
	t0.Headsign, t1.Headsign = t1.Headsign, t0.Headsign
	t0.FullShape, t1.FullShape = t1.FullShape, t0.FullShape
}

// One directional traversal of a route.
type Trip struct {
	TripID           int               `json:"tripId"`
	RouteID          int               `json:"routeId"`
	Headsign         string            `json:"headsign"`
	Direction        int               `json:"direction"`
	IsActive         bool              `json:"isActive"`
	FullShape        string            `json:"fullShape"`
	StopDetails      []StopDetail      `json:"stopDetails"`
	StopPairSegments []StopPairSegment `json:"stopPairSegments"`
}

type StopDetail struct {
	StopID   int `json:"stopId"`
	FareZone int `json:"fareZone"`
}

// The road geometry between two consecutive stops of a trip. Distance
// and shape are populated lazily by an external routing call and stay
// nil until then.
type StopPairSegment struct {
	FromStopID   int      `json:"fromStopId"`
	ToStopID     int      `json:"toStopId"`
	Distance     *float64 `json:"distance"`
	SegmentShape *string  `json:"segmentShape"`
}

// A route's raw geometry for one direction. Coordinates are
// [longitude, latitude] pairs, the order map renderers expect.
type Shape struct {
	RouteNumber string       `json:"routeNumber"`
	Direction   int          `json:"direction"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// An InvariantError means the pipeline's own invariants are broken,
// not merely that upstream data is noisy. It always aborts the run.
type InvariantError struct {
	Stage string
	Msg   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violation: %s", e.Stage, e.Msg)
}

func Invariant(stage, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Stage: stage, Msg: fmt.Sprintf(format, args...)}
}
