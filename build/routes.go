package build

import (
	"sort"

	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/parse"
)

// Brand colors per network, hex without the leading '#'.
var networkColors = map[string]string{
	"utama":              "dc241f",
	"tempatan":           "dc241f",
	"bet":                "dc241f",
	"drt":                "dc241f",
	"mrt_feeder":         "3b7534",
	"lrt_feeder":         "0075bf",
	"mbpj":               "004ea2",
	"mbsa":               "004ea2",
	"mpaj":               "004ea2",
	"mpkl":               "004ea2",
	"mbsj":               "004ea2",
	"mbdk":               "004ea2",
	"mpkj":               "004ea2",
	"mps":                "004ea2",
	"nadiputra":          "00a650",
	"batu_caves_shuttle": "dc241f",
	"merdeka_shuttle":    "dc241f",
	"shuttle":            "666666",
	"mall_shuttle":       "666666",
	"unknown":            "666666",
}

const (
	defaultColor = "666666"
	textColor    = "ffffff"

	// GTFS route_type for bus.
	routeTypeBus = 3
)

func routeColor(networkID string) string {
	if c, ok := networkColors[networkID]; ok {
		return c
	}
	return defaultColor
}

func operatorID(networkID string) string {
	switch networkID {
	case "utama", "tempatan", "bet", "mrt_feeder", "lrt_feeder",
		"drt", "shuttle", "batu_caves_shuttle", "merdeka_shuttle":
		return "rapid_bus"
	case "mbpj", "mbsa", "mpaj", "mpkl", "mbsj", "mbdk", "mpkj",
		"mps", "nadiputra":
		return networkID
	default:
		return "unknown"
	}
}

// Routes builds the route table from the route index, excluding dead
// and chartered routes, sorted by route number so that IDs are stable
// run to run.
func Routes(index map[string]parse.RouteInfo) []model.Route {
	numbers := make([]string, 0, len(index))
	for number := range index {
		if parse.ShouldSkipRoute(number) {
			continue
		}
		numbers = append(numbers, number)
	}
	sort.Strings(numbers)

	routes := make([]model.Route, 0, len(numbers))
	for i, number := range numbers {
		info := index[number]
		routes = append(routes, model.Route{
			RouteID:        i + 1,
			RouteShortName: number,
			RouteLongName:  info.RouteName,
			OperatorID:     operatorID(info.RouteType),
			NetworkID:      info.RouteType,
			RouteType:      routeTypeBus,
			RouteColor:     routeColor(info.RouteType),
			RouteTextColor: textColor,
		})
	}
	return routes
}
