package domain

import (
	"strings"
	"time"
)

// DefaultAlertDuration is the assumed lifetime of an alert whose provider
// omits an expiry timestamp.
const DefaultAlertDuration = 24 * time.Hour

// Coordinate is a WGS-84 latitude/longitude pair. Values outside the valid
// range are not normalized here; they surface as provider errors.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AlertSeverity is the unified severity scale, ordered by importance.
type AlertSeverity int

const (
	SeverityUnknown AlertSeverity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

// ParseSeverity normalizes a provider severity string. Matching is
// case-insensitive; CAP's "Major" maps to Severe. Unrecognized values,
// including the empty string, map to SeverityUnknown.
func ParseSeverity(s string) AlertSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor":
		return SeverityMinor
	case "moderate":
		return SeverityModerate
	case "severe", "major":
		return SeveritySevere
	case "extreme":
		return SeverityExtreme
	default:
		return SeverityUnknown
	}
}

// String returns the lowercase name of the severity level.
func (s AlertSeverity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	case SeverityExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity as its string name.
func (s AlertSeverity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Alert is the unified alert record produced by all provider adapters.
// Instances are created fresh on every refresh cycle and never mutated;
// the next successful refresh supersedes the whole list.
type Alert struct {
	// ID is the provider-native identifier, or a synthesized dedup key for
	// providers without stable identifiers.
	ID          string        `json:"id"`
	Event       string        `json:"event"`
	Severity    AlertSeverity `json:"severity"`
	Urgency     string        `json:"urgency"`
	Headline    string        `json:"headline"`
	Description string        `json:"description,omitempty"`
	Instruction string        `json:"instruction,omitempty"`
	AreaDesc    string        `json:"area_desc"`
	Sent        time.Time     `json:"sent"`
	Expires     time.Time     `json:"expires"`
}

// Expired reports whether the alert's expiry has passed relative to the
// package clock. The boundary instant counts as expired: an alert expiring
// exactly now is excluded.
func (a Alert) Expired() bool {
	return !a.Expires.After(clock.Now())
}

// EffectiveExpiry returns expires when set, otherwise sent plus the default
// alert duration.
func EffectiveExpiry(sent, expires time.Time) time.Time {
	if expires.IsZero() {
		return sent.Add(DefaultAlertDuration)
	}
	return expires
}
