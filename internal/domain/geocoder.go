package domain

import "context"

// GeocodingResult contains the coordinates returned for a postcode.
// Found is false when the provider answered without coordinates.
type GeocodingResult struct {
	Lat   float64
	Lng   float64
	Found bool
}

// Geocoder converts postcodes to coordinates.
type Geocoder interface {
	// GeocodePostcode looks up a single postcode. A nil error with
	// Found == false is the empty outcome.
	GeocodePostcode(ctx context.Context, postcode string, creds Credentials) (GeocodingResult, error)
}

// Directory lists the organisations registered in a town.
type Directory interface {
	Organisations(ctx context.Context, town string, creds Credentials) ([]AddressRecord, error)
}
