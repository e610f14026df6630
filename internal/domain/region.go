package domain

// Jurisdiction identifies the alert provider governing a coordinate.
// It is derived per resolution and never persisted.
type Jurisdiction int

const (
	JurisdictionUnknown Jurisdiction = iota
	JurisdictionUS
	JurisdictionCanada
	JurisdictionEurope
)

// String returns the jurisdiction tag name.
func (j Jurisdiction) String() string {
	switch j {
	case JurisdictionUS:
		return "us"
	case JurisdictionCanada:
		return "canada"
	case JurisdictionEurope:
		return "europe"
	default:
		return "unknown"
	}
}

// Provider returns the adapter name serving the jurisdiction. The names
// match the provider field in ProviderError and the metric labels.
func (j Jurisdiction) Provider() string {
	switch j {
	case JurisdictionUS:
		return "nws"
	case JurisdictionCanada:
		return "eccc"
	case JurisdictionEurope:
		return "meteoalarm"
	default:
		return "none"
	}
}

// continentalBand is one longitude band of the continental US test with its
// own latitude ceiling. The ceilings tighten eastward to follow the border
// more closely than a single box: 49°N holds west of the Great Lakes, then
// the ceiling drops to exclude southern Ontario and Québec, and rises again
// for Maine.
type continentalBand struct {
	lonMin, lonMax float64 // band is (lonMin, lonMax]; the first band includes lonMin
	latMax         float64
}

var continentalBands = []continentalBand{
	{-125.0, -95.0, 49.0},  // Pacific through the northern plains
	{-95.0, -87.0, 46.5},   // upper Midwest
	{-87.0, -82.0, 45.8},   // Great Lakes
	{-82.0, -71.0, 43.5},   // lower lakes and Northeast, excludes Toronto/Montréal
	{-71.0, -66.0, 47.5},   // Maine
}

const continentalLatMin = 24.0

// Classify maps a coordinate to the jurisdiction whose alert provider
// governs it. Precedence is US, then Canada, then Europe; the first match
// wins. Coordinates outside all regions return JurisdictionUnknown.
func Classify(lat, lon float64) Jurisdiction {
	switch {
	case isUS(lat, lon):
		return JurisdictionUS
	case isCanada(lat, lon):
		return JurisdictionCanada
	case isEurope(lat, lon):
		return JurisdictionEurope
	default:
		return JurisdictionUnknown
	}
}

func isUS(lat, lon float64) bool {
	// Alaska and Hawaii are disjoint from the continental test.
	if lat >= 51.0 && lat <= 72.0 && lon >= -180.0 && lon <= -129.0 {
		return true
	}
	if lat >= 18.0 && lat <= 23.0 && lon >= -161.0 && lon <= -154.0 {
		return true
	}
	return isContinentalUS(lat, lon)
}

func isContinentalUS(lat, lon float64) bool {
	if lat < continentalLatMin {
		return false
	}
	for i, band := range continentalBands {
		inBand := lon > band.lonMin && lon <= band.lonMax
		if i == 0 {
			inBand = lon >= band.lonMin && lon <= band.lonMax
		}
		if inBand {
			return lat <= band.latMax
		}
	}
	return false
}

func isCanada(lat, lon float64) bool {
	return lat >= 41.0 && lat <= 84.0 && lon >= -141.0 && lon <= -52.0
}

func isEurope(lat, lon float64) bool {
	return lat >= 35.0 && lat <= 71.0 && lon >= -25.0 && lon <= 40.0
}
