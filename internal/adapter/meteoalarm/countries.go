package meteoalarm

import (
	"strings"

	"github.com/biter777/countries"
)

// feedInfo identifies one MeteoAlarm country feed: the slug in the legacy
// Atom feed URL and the country code prefixing that country's EMMA_ID
// region identifiers.
type feedInfo struct {
	Slug string
	Code string
}

// feedsByCode maps ISO alpha-2 codes to MeteoAlarm feeds. MeteoAlarm uses
// "UK" for the United Kingdom and "EL" appears in some Greek identifiers,
// but feed codes here follow what the feeds themselves emit.
var feedsByCode = map[string]feedInfo{
	"AT": {"austria", "AT"},
	"BA": {"bosnia-herzegovina", "BA"},
	"BE": {"belgium", "BE"},
	"BG": {"bulgaria", "BG"},
	"CH": {"switzerland", "CH"},
	"CY": {"cyprus", "CY"},
	"CZ": {"czechia", "CZ"},
	"DE": {"germany", "DE"},
	"DK": {"denmark", "DK"},
	"EE": {"estonia", "EE"},
	"ES": {"spain", "ES"},
	"FI": {"finland", "FI"},
	"FR": {"france", "FR"},
	"GB": {"united-kingdom", "UK"},
	"GR": {"greece", "GR"},
	"HR": {"croatia", "HR"},
	"HU": {"hungary", "HU"},
	"IE": {"ireland", "IE"},
	"IL": {"israel", "IL"},
	"IS": {"iceland", "IS"},
	"IT": {"italy", "IT"},
	"LT": {"lithuania", "LT"},
	"LU": {"luxembourg", "LU"},
	"LV": {"latvia", "LV"},
	"MD": {"moldova", "MD"},
	"ME": {"montenegro", "ME"},
	"MK": {"north-macedonia", "MK"},
	"MT": {"malta", "MT"},
	"NL": {"netherlands", "NL"},
	"NO": {"norway", "NO"},
	"PL": {"poland", "PL"},
	"PT": {"portugal", "PT"},
	"RO": {"romania", "RO"},
	"RS": {"serbia", "RS"},
	"SE": {"sweden", "SE"},
	"SI": {"slovenia", "SI"},
	"SK": {"slovakia", "SK"},
}

// lookupFeed maps a free-form country name ("United Kingdom", "Czech
// Republic", "Deutschland" via ISO lookup) to its MeteoAlarm feed. The
// second return is false for countries MeteoAlarm does not cover.
func lookupFeed(countryName string) (feedInfo, bool) {
	name := strings.TrimSpace(countryName)
	if name == "" {
		return feedInfo{}, false
	}

	country := countries.ByName(name)
	if country == countries.Unknown {
		return feedInfo{}, false
	}

	info, ok := feedsByCode[country.Alpha2()]
	return info, ok
}
