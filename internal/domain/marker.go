package domain

import "math"

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both values are finite and within the WGS-84 range.
func (p LatLng) Valid() bool {
	return finite(p.Lat) && finite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lng >= -180 && p.Lng <= 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Marker is a resolved, displayable organisation location.
type Marker struct {
	AddressHTML string  `json:"address_html"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Position returns the marker coordinates.
func (m Marker) Position() LatLng {
	return LatLng{Lat: m.Lat, Lng: m.Lng}
}

// FailureKind classifies why a lookup produced no marker.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureEmpty     FailureKind = "empty"
)

// FailedLookup describes an address record whose lookup produced no marker.
type FailedLookup struct {
	Organisation string      `json:"organisation"`
	Postcode     string      `json:"postcode"`
	Kind         FailureKind `json:"kind"`
	Error        string      `json:"error"`
}

// LookupOutcome is reported once per record when its lookup settles.
// Exactly one of Marker and Failure is set.
type LookupOutcome struct {
	Record  AddressRecord
	Marker  *Marker
	Failure *FailedLookup
}

// Resolution is the settled result of resolving a batch of address records.
// Marker order is unspecified.
type Resolution struct {
	Markers []Marker       `json:"markers"`
	Failed  []FailedLookup `json:"failed,omitempty"`
}

// Settled returns the number of records accounted for.
func (r Resolution) Settled() int {
	return len(r.Markers) + len(r.Failed)
}

// FailedPostcodes lists the postcodes of every failed lookup.
func (r Resolution) FailedPostcodes() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Postcode)
	}
	return out
}
