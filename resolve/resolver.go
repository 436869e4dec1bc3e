// Package resolve merges stop records from three independently-keyed
// catalogs into one canonical stop per physical location. Matching is
// coordinate proximity within a fixed tolerance, patched by a manual
// override table, with deterministic tie-breaks for conflicting
// duplicates. Conflicts the tie-breaks cannot settle are never merged
// by guesswork; they are kept apart and surfaced for human review.
package resolve

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"kltransit.dev/pipeline/model"
	"kltransit.dev/pipeline/parse"
)

// Two coordinates within this tolerance (~1m) are the same physical
// location.
const CoordinateEpsilon = 1e-5

// Looser tolerance used when deciding whether two duplicate records
// are field-identical copies of each other.
const identicalEpsilon = 1e-4

type Input struct {
	LegacyStops []parse.LegacyStop
	RapidStops  []parse.CatalogStop
	MRTStops    []parse.CatalogStop
	BusRows     []parse.BusRow

	// Nil means DefaultOverrides().
	Overrides map[string]Override
}

// The audit artifact written as stop_id_mapping.json: operator ID to
// the legacy IDs observed for it.
type IDMapping struct {
	Rapid map[string][]string `json:"rapid"`
	MRT   map[string][]string `json:"mrt"`
}

type Resolution struct {
	Stops []model.Stop

	Mapping IDMapping

	// Every legacy coordinate key, Rapid ID and MRT ID to its
	// canonical stop ID. This is what the service builder rewrites
	// through.
	LegacyToCanonical map[string]int

	Report Report
}

// coordIndex buckets catalog stops at epsilon resolution for
// proximity lookups. When several stops match, the one earliest in
// the source file wins.
type coordIndex struct {
	buckets map[[2]int64][]int
	stops   []parse.CatalogStop
}

func newCoordIndex(stops []parse.CatalogStop) *coordIndex {
	idx := &coordIndex{
		buckets: map[[2]int64][]int{},
		stops:   stops,
	}
	for i, s := range stops {
		k := bucketKey(s.Latitude, s.Longitude)
		idx.buckets[k] = append(idx.buckets[k], i)
	}
	return idx
}

func bucketKey(lat, lng float64) [2]int64 {
	return [2]int64{
		int64(math.Floor(lat / CoordinateEpsilon)),
		int64(math.Floor(lng / CoordinateEpsilon)),
	}
}

func (idx *coordIndex) match(lat, lng float64) (parse.CatalogStop, bool) {
	best := -1
	center := bucketKey(lat, lng)
	for dlat := int64(-1); dlat <= 1; dlat++ {
		for dlng := int64(-1); dlng <= 1; dlng++ {
			k := [2]int64{center[0] + dlat, center[1] + dlng}
			for _, i := range idx.buckets[k] {
				s := idx.stops[i]
				if math.Abs(s.Latitude-lat) < CoordinateEpsilon &&
					math.Abs(s.Longitude-lng) < CoordinateEpsilon {
					if best == -1 || i < best {
						best = i
					}
				}
			}
		}
	}
	if best == -1 {
		return parse.CatalogStop{}, false
	}
	return idx.stops[best], true
}

// An ID group: every legacy stop that resolved to the same operator
// ID. More than one member means a duplicate needing resolution.
type group struct {
	id      string
	members []int // indices into Input.LegacyStops
}

// Resolve produces the canonical stop set.
func Resolve(input Input) *Resolution {
	overrides := input.Overrides
	if overrides == nil {
		overrides = DefaultOverrides()
	}

	rapidIdx := newCoordIndex(input.RapidStops)
	mrtIdx := newCoordIndex(input.MRTStops)
	busIdx := newCoordIndex(busCatalog(input.BusRows))
	routesByLegacy := parse.RoutesByLegacyID(input.BusRows)

	var rapidGroups, mrtGroups []*group
	rapidByID := map[string]*group{}
	mrtByID := map[string]*group{}
	mrtGroupOf := map[int]string{} // legacy index -> mrt id
	var noID []int

	mapping := IDMapping{
		Rapid: map[string][]string{},
		MRT:   map[string][]string{},
	}

	for i, stop := range input.LegacyStops {
		lat, lng := float64(stop.Latitude), float64(stop.Longitude)
		override, hasOverride := overrides[stop.StopID]

		rapidID := ""
		if match, found := rapidIdx.match(lat, lng); found {
			rapidID = match.ID
		}
		if rapidID == "" && hasOverride {
			rapidID = override.RapidID
		}
		if rapidID == "" && !(hasOverride && override.NoRapid) {
			if match, found := busIdx.match(lat, lng); found {
				rapidID = match.ID
			}
		}

		mrtID := ""
		if match, found := mrtIdx.match(lat, lng); found {
			mrtID = match.ID
		}
		if mrtID == "" && hasOverride {
			mrtID = override.MRTID
		}

		if rapidID != "" {
			g := rapidByID[rapidID]
			if g == nil {
				g = &group{id: rapidID}
				rapidByID[rapidID] = g
				rapidGroups = append(rapidGroups, g)
			}
			g.members = append(g.members, i)
			mapping.Rapid[rapidID] = append(mapping.Rapid[rapidID], stop.StopID)
		}

		if mrtID != "" {
			g := mrtByID[mrtID]
			if g == nil {
				g = &group{id: mrtID}
				mrtByID[mrtID] = g
				mrtGroups = append(mrtGroups, g)
			}
			g.members = append(g.members, i)
			mrtGroupOf[i] = mrtID
			mapping.MRT[mrtID] = append(mapping.MRT[mrtID], stop.StopID)
		}

		if rapidID == "" && mrtID == "" {
			noID = append(noID, i)
		}
	}

	res := &Resolution{
		Mapping:           mapping,
		LegacyToCanonical: map[string]int{},
	}
	res.Report.TotalLegacy = len(input.LegacyStops)
	res.Report.NoID = len(noID)

	processed := map[int]bool{}
	nextID := 1

	emit := func(members []int, rep int, rapidID, mrtID string) {
		stop := canonicalStop(nextID, input.LegacyStops, members, rep, rapidID, mrtID)
		res.Stops = append(res.Stops, stop)
		for _, m := range members {
			res.LegacyToCanonical[input.LegacyStops[m].StopID] = stop.ID
			processed[m] = true
		}
		if rapidID != "" {
			if _, taken := res.LegacyToCanonical[rapidID]; !taken {
				res.LegacyToCanonical[rapidID] = stop.ID
			}
		}
		if mrtID != "" {
			if _, taken := res.LegacyToCanonical[mrtID]; !taken {
				res.LegacyToCanonical[mrtID] = stop.ID
			}
		}
		nextID++
	}

	resolveGroups := func(groups []*group, space string) {
		for _, g := range groups {
			members := []int{}
			for _, m := range g.members {
				if !processed[m] {
					members = append(members, m)
				}
			}
			if len(members) == 0 {
				continue
			}

			rapidID, mrtID := "", ""
			if space == spaceRapid {
				rapidID = g.id
				mrtID = mrtGroupOf[members[0]]
			} else {
				mrtID = g.id
			}

			if len(members) > 1 {
				if space == spaceRapid {
					res.Report.RapidDuplicates++
				} else {
					res.Report.MRTDuplicates++
				}
			}

			rep, merged := resolveDuplicate(input.LegacyStops, members, routesByLegacy)
			if merged {
				if len(members) > 1 {
					res.Report.AutoMerged++
				}
				emit(members, rep, rapidID, mrtID)
				continue
			}

			// Ambiguous: keep every member as its own
			// canonical stop, never guess.
			res.Report.Ambiguous = append(res.Report.Ambiguous,
				ambiguousGroup(space, g.id, input.LegacyStops, members, routesByLegacy))
			for _, m := range members {
				memberMRT := mrtID
				if space == spaceRapid {
					memberMRT = mrtGroupOf[m]
				}
				emit([]int{m}, m, rapidID, memberMRT)
			}
		}
	}

	resolveGroups(rapidGroups, spaceRapid)
	resolveGroups(mrtGroups, spaceMRT)

	// Stops matching neither catalog nor any override still become
	// canonical stops, identified only by their coordinate-derived
	// legacy key.
	for _, i := range noID {
		emit([]int{i}, i, "", "")
	}

	res.Report.Canonical = len(res.Stops)
	return res
}

const (
	spaceRapid = "rapid"
	spaceMRT   = "mrt"
)

// resolveDuplicate applies the tie-break policy, in order: identical
// records auto-merge; a pair split between a "T"-prefixed express
// overlay route and a regular route keeps the regular stop's record;
// anything else is ambiguous.
func resolveDuplicate(stops []parse.LegacyStop, members []int, routesByLegacy map[string][]string) (rep int, merged bool) {
	if len(members) == 1 {
		return members[0], true
	}

	identical := true
	for _, m := range members[1:] {
		if !stopsIdentical(stops[members[0]], stops[m]) {
			identical = false
			break
		}
	}
	if identical {
		return members[0], true
	}

	if len(members) == 2 {
		aRoutes := routesByLegacy[stops[members[0]].StopID]
		bRoutes := routesByLegacy[stops[members[1]].StopID]
		if len(aRoutes) == 1 && len(bRoutes) == 1 {
			aT := strings.HasPrefix(aRoutes[0], "T")
			bT := strings.HasPrefix(bRoutes[0], "T")
			if aT != bT {
				if aT {
					return members[1], true
				}
				return members[0], true
			}
		}
	}

	return 0, false
}

func stopsIdentical(a, b parse.LegacyStop) bool {
	return a.Name == b.Name &&
		a.Code == b.Code &&
		a.StreetName == b.StreetName &&
		math.Abs(float64(a.Latitude-b.Latitude)) < identicalEpsilon &&
		math.Abs(float64(a.Longitude-b.Longitude)) < identicalEpsilon
}

func canonicalStop(id int, stops []parse.LegacyStop, members []int, rep int, rapidID, mrtID string) model.Stop {
	src := stops[rep]
	oldIDs := make([]string, 0, len(members))
	for _, m := range members {
		oldIDs = append(oldIDs, stops[m].StopID)
	}

	return model.Stop{
		ID:          id,
		Code:        src.Code,
		Name:        src.Name,
		StreetName:  src.StreetName,
		Latitude:    float64(src.Latitude),
		Longitude:   float64(src.Longitude),
		RapidStopID: atoi(rapidID),
		MRTStopID:   atoi(mrtID),
		OldStopID:   strings.Join(oldIDs, ","),
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// busCatalog views the raw per-route rows as a catalog of stops with
// proper numeric operator IDs, the Rapid fallback of the matcher.
func busCatalog(rows []parse.BusRow) []parse.CatalogStop {
	seen := map[string]bool{}
	stops := []parse.CatalogStop{}
	for _, row := range rows {
		id := strings.TrimSpace(row.StopID)
		if id == "" || seen[id] || !numericID(id) {
			continue
		}
		seen[id] = true
		stops = append(stops, parse.CatalogStop{
			ID:         id,
			Name:       row.StopName,
			StreetName: row.StreetName,
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
		})
	}
	return stops
}

func numericID(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// VerifyConservation checks that every legacy key ended up in exactly
// one canonical stop's audit trail: nothing silently dropped, nothing
// double-counted.
func VerifyConservation(legacy []parse.LegacyStop, stops []model.Stop) error {
	seen := map[string]int{}
	for _, s := range stops {
		for _, id := range s.OldStopIDs() {
			seen[id]++
		}
	}

	distinct := map[string]bool{}
	for _, l := range legacy {
		distinct[l.StopID] = true
	}

	keys := make([]string, 0, len(distinct))
	for k := range distinct {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch seen[k] {
		case 1:
		case 0:
			return model.Invariant("resolve", "legacy stop %s missing from canonical set", k)
		default:
			return model.Invariant("resolve", "legacy stop %s merged into %d canonical stops", k, seen[k])
		}
	}
	return nil
}
