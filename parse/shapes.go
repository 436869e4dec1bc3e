package parse

import (
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"kltransit.dev/pipeline/model"
)

type shapeRowCSV struct {
	RouteNumber string  `csv:"route_number"`
	Direction   int     `csv:"direction"`
	Sequence    int     `csv:"sequence"`
	Latitude    float64 `csv:"latitude"`
	Longitude   float64 `csv:"longitude"`
}

// ParseShapes reads the route shapes export and groups points into
// one shape per route and direction. Points are stored
// longitude-first, the order the map layer consumes directly; the
// trip assembler swaps the axes when it encodes polylines.
func ParseShapes(data io.Reader) ([]model.Shape, error) {
	rows := []*shapeRowCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling shapes csv")
	}

	type key struct {
		route     string
		direction int
	}

	order := []key{}
	grouped := map[key][][2]float64{}
	for i, row := range rows {
		if row.RouteNumber == "" {
			return nil, model.Invariant("parse", "shape row %d has empty route_number", i+1)
		}
		if row.Direction != model.ServiceDirectionOutbound && row.Direction != model.ServiceDirectionInbound {
			return nil, model.Invariant("parse", "shape row %d (route %s) has direction %d", i+1, row.RouteNumber, row.Direction)
		}

		k := key{row.RouteNumber, row.Direction}
		if _, found := grouped[k]; !found {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], [2]float64{row.Longitude, row.Latitude})
	}

	shapes := make([]model.Shape, 0, len(order))
	for _, k := range order {
		shapes = append(shapes, model.Shape{
			RouteNumber: k.route,
			Direction:   k.direction,
			Coordinates: grouped[k],
		})
	}

	sort.Slice(shapes, func(i, j int) bool {
		if shapes[i].RouteNumber != shapes[j].RouteNumber {
			return shapes[i].RouteNumber < shapes[j].RouteNumber
		}
		return shapes[i].Direction < shapes[j].Direction
	})

	return shapes, nil
}
