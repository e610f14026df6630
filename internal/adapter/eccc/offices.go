package eccc

// officeBox maps a lat/lon bounding box to the ECCC storm prediction centre
// responsible for it. The boxes approximate provincial coverage and overlap
// on purpose near borders, where warnings may be issued by either office.
type officeBox struct {
	office         string
	latMin, latMax float64
	lonMin, lonMax float64
}

// fallbackOffice is crawled when no box matches a point that the region
// classifier already placed in Canada.
const fallbackOffice = "CWTO"

var officeBoxes = []officeBox{
	{"CWNT", 60.0, 84.0, -141.0, -61.0}, // Yukon, NWT, Nunavut
	{"CWVR", 48.0, 60.0, -139.1, -114.0}, // British Columbia
	{"CWEG", 48.9, 60.0, -120.0, -109.9}, // Alberta
	{"CWWG", 48.9, 60.0, -111.0, -95.0},  // Saskatchewan, Manitoba
	{"CWTO", 41.6, 56.9, -95.2, -74.3},   // Ontario
	{"CWUL", 44.9, 62.6, -79.8, -57.1},   // Quebec
	{"CWHX", 43.3, 48.1, -69.1, -59.6},   // NB, NS, PEI
	{"CYQX", 46.5, 60.4, -59.7, -52.5},   // Newfoundland and Labrador
}

// officesFor returns every office whose box contains the point, in table
// order. Points that miss every box get the fallback office so a fetch is
// always attempted.
func officesFor(lat, lon float64) []string {
	var offices []string
	for _, b := range officeBoxes {
		if lat >= b.latMin && lat <= b.latMax && lon >= b.lonMin && lon <= b.lonMax {
			offices = append(offices, b.office)
		}
	}
	if len(offices) == 0 {
		return []string{fallbackOffice}
	}
	return offices
}
