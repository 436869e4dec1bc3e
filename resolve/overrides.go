package resolve

// A manual override force-assigns operator IDs to a legacy stop when
// coordinate matching fails or is ambiguous. Overrides are consulted
// after coordinate matching. NoRapid marks a stop known to have no
// Rapid identity at all, suppressing the all-routes fallback.
type Override struct {
	RapidID string
	MRTID   string
	NoRapid bool
}

// Known data-quality exceptions, keyed by the legacy
// coordinate-derived stop ID. Versioned with the pipeline; every
// entry carries the reason it exists.
var defaultOverrides = map[string]Override{
	// MRT feeder terminus; the rail catalog places the station
	// entrance ~40m from the bus bay, so coordinates never match.
	"N3059793E101793608": {MRTID: "12001849"},
	// Station rebuilt in 2023; the dump still has the old bay
	// coordinates.
	"N2950286E101656930": {MRTID: "12003053"},
	// Name is wrong in the raw data (KL412 PRIMA ALAM DAMAI);
	// confirmed to be Komersial Taman Len Seng (2).
	"N3074034E101744225": {MRTID: "12003056"},
	// Name is wrong in the dump (PETRONAS PETRONAS ALAM DAMAI);
	// the raw data's PETRONAS ALAM DAMAI (OPP) is correct.
	"N3074479E101738490": {MRTID: "12003055"},
	// Two Rapid bays share this coordinate; 1002013 is the one
	// regular services actually use.
	"N3146748E101662822": {RapidID: "1002013"},
	// Decommissioned bay that still shadows a live Rapid ID; keep
	// the all-routes fallback from matching it.
	"N3150606E101691297": {NoRapid: true},
	// Relocated ~30m when the interchange opened.
	"N3170092E101564068": {MRTID: "12003067"},
	// Rapid catalog has a typo'd longitude for this one.
	"N3186979E101663839": {RapidID: "1008084"},
}

// DefaultOverrides returns a copy of the built-in override table.
func DefaultOverrides() map[string]Override {
	overrides := make(map[string]Override, len(defaultOverrides))
	for k, v := range defaultOverrides {
		overrides[k] = v
	}
	return overrides
}
