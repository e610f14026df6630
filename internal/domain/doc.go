// Package domain models the unified weather, air quality, and alert data
// served by tempestd, together with the pure logic that operates on it.
//
// # Alert Sources
//
// Alerts are aggregated from three public providers, each with its own wire
// protocol and filtering rules:
//
//	US     — National Weather Service (api.weather.gov), GeoJSON by point.
//	Europe — MeteoAlarm (feeds.meteoalarm.org), Atom feeds carrying CAP
//	         payloads per country, filtered by EMMA_ID administrative region.
//	Canada — Environment and Climate Change Canada (dd.weather.gc.ca),
//	         CAP-XML documents crawled from per-office directory listings,
//	         filtered by point-in-polygon containment.
//
// Which provider governs a coordinate is decided by [Classify], a pure
// bounding-box test with a piecewise continental US/Canada border. The three
// providers use different severity vocabularies; [ParseSeverity] folds them
// into one ordered scale (unknown < minor < moderate < severe < extreme).
// CAP's "Major" is treated as a synonym for Severe.
//
// # Expiry
//
// Providers may omit an expiry timestamp; the convention here is sent + 24h.
// An alert whose expiry is not strictly in the future is expired: the
// boundary instant itself is excluded. All expiry checks go through the
// package clock so tests can freeze time via [SetClock].
//
// # Weather Conventions
//
// Weather codes follow the WMO interpretation table used by Open-Meteo
// (0 = clear sky, 95 = thunderstorm, ...). AQI values are reported on the
// US EPA scale outside Europe and on the European EAQI scale inside it;
// the two scales band differently and must not be compared directly.
package domain
