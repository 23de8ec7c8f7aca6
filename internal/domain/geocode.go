package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolveRecord geocodes a single address record. Failures are logged and
// returned as a FailedLookup rather than an error (graceful degradation):
// the caller only ever sees a marker or a recorded failure.
func ResolveRecord(ctx context.Context, rec AddressRecord, geocoder Geocoder, creds Credentials, logger *slog.Logger) LookupOutcome {
	postcode := NormalizePostcode(rec.Postcode)
	if postcode == "" {
		logger.Debug("skipping lookup for record without postcode",
			"organisation", rec.OrganisationName,
		)
		return failed(rec, &LookupError{Postcode: rec.Postcode, Err: fmt.Errorf("%w: missing postcode", ErrLookupEmpty)})
	}

	result, err := geocoder.GeocodePostcode(ctx, postcode, creds)
	if err != nil {
		logger.Warn("postcode lookup failed",
			"organisation", rec.OrganisationName,
			"postcode", postcode,
			"error", err,
		)
		return failed(rec, &LookupError{Postcode: postcode, Err: fmt.Errorf("%w: %w", ErrLookupTransport, err)})
	}
	if !result.Found {
		logger.Debug("postcode lookup returned no coordinates",
			"organisation", rec.OrganisationName,
			"postcode", postcode,
		)
		return failed(rec, &LookupError{Postcode: postcode, Err: ErrLookupEmpty})
	}
	if pos := (LatLng{Lat: result.Lat, Lng: result.Lng}); !pos.Valid() {
		logger.Warn("postcode lookup returned invalid coordinates",
			"organisation", rec.OrganisationName,
			"postcode", postcode,
			"lat", result.Lat,
			"lng", result.Lng,
		)
		return failed(rec, &LookupError{Postcode: postcode, Err: fmt.Errorf("%w: invalid coordinates %v,%v", ErrLookupEmpty, result.Lat, result.Lng)})
	}

	return LookupOutcome{
		Record: rec,
		Marker: &Marker{
			AddressHTML: RenderAddressHTML(rec),
			Lat:         result.Lat,
			Lng:         result.Lng,
		},
	}
}

// failed records the postcode as it was sent to the geocoder, or the raw
// value when the lookup was skipped.
func failed(rec AddressRecord, err *LookupError) LookupOutcome {
	return LookupOutcome{
		Record: rec,
		Failure: &FailedLookup{
			Organisation: rec.OrganisationName,
			Postcode:     err.Postcode,
			Kind:         err.Kind(),
			Error:        err.Error(),
		},
	}
}
