package resolve

import (
	"fmt"
	"strings"

	"kltransit.dev/pipeline/parse"
)

// Report summarizes a resolver run for logs and operator review.
type Report struct {
	TotalLegacy     int
	Canonical       int
	RapidDuplicates int
	MRTDuplicates   int
	AutoMerged      int
	NoID            int

	Ambiguous []AmbiguousGroup
}

// An operator ID that several distinct legacy records claimed, where
// no tie-break applied. Members stay separate canonical stops until
// someone adds an override.
type AmbiguousGroup struct {
	Space   string
	ID      string
	Members []AmbiguousMember
}

type AmbiguousMember struct {
	LegacyID string
	Name     string
	Code     string
	Routes   []string
}

func ambiguousGroup(space, id string, stops []parse.LegacyStop, members []int, routesByLegacy map[string][]string) AmbiguousGroup {
	g := AmbiguousGroup{Space: space, ID: id}
	for _, m := range members {
		s := stops[m]
		g.Members = append(g.Members, AmbiguousMember{
			LegacyID: s.StopID,
			Name:     s.Name,
			Code:     s.Code,
			Routes:   routesByLegacy[s.StopID],
		})
	}
	return g
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "legacy stops: %d\n", r.TotalLegacy)
	fmt.Fprintf(&b, "canonical stops: %d\n", r.Canonical)
	fmt.Fprintf(&b, "duplicate rapid IDs: %d\n", r.RapidDuplicates)
	fmt.Fprintf(&b, "duplicate mrt IDs: %d\n", r.MRTDuplicates)
	fmt.Fprintf(&b, "auto-merged: %d\n", r.AutoMerged)
	fmt.Fprintf(&b, "stops without operator ID: %d\n", r.NoID)
	fmt.Fprintf(&b, "ambiguous groups: %d\n", len(r.Ambiguous))
	for _, g := range r.Ambiguous {
		fmt.Fprintf(&b, "  %s %s:\n", g.Space, g.ID)
		for _, m := range g.Members {
			fmt.Fprintf(&b, "    %s %q (%s) routes %s\n",
				m.LegacyID, m.Name, m.Code, strings.Join(m.Routes, ","))
		}
	}
	return b.String()
}
