package geocode

// countryBox is a rough bounding box for one European country, used only
// when the reverse-geocoding lookup fails. Boxes overlap; they are checked
// in slice order and the first hit wins, so smaller countries precede the
// larger ones that envelop them.
type countryBox struct {
	name                           string
	latMin, latMax, lonMin, lonMax float64
}

var europeanBoxes = []countryBox{
	{"Belgium", 49.5, 51.5, 2.5, 6.4},
	{"Netherlands", 50.7, 53.6, 3.3, 7.2},
	{"Switzerland", 45.8, 47.8, 5.9, 10.5},
	{"Austria", 46.3, 49.0, 9.5, 17.2},
	{"United Kingdom", 49.9, 58.7, -8.2, 1.8},
	{"Ireland", 51.4, 55.4, -10.5, -5.9},
	{"Portugal", 36.9, 42.2, -9.5, -6.2},
	{"Italy", 36.6, 47.1, 6.6, 18.5},
	{"Spain", 36.0, 43.8, -9.3, 3.3},
	{"France", 42.3, 51.1, -4.8, 8.2},
	{"Germany", 47.3, 55.1, 5.9, 15.0},
	{"Poland", 49.0, 54.8, 14.1, 24.2},
}

// fallbackCountry returns the first European bounding box containing the
// coordinate, or "Unknown".
func fallbackCountry(lat, lon float64) string {
	for _, box := range europeanBoxes {
		if lat >= box.latMin && lat <= box.latMax && lon >= box.lonMin && lon <= box.lonMax {
			return box.name
		}
	}
	return "Unknown"
}
