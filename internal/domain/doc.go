// Package domain models organisations from the IoT UK Nations directory and
// the map markers derived from them.
//
// # Data Sources
//
// Both data sources are datasets published through a PEDASI data portal.
// The directory dataset lists organisations for a town:
//
//	GET <root>/api/datasources/2/data/?town=Southampton
//	{"data": [{"organisation_name": "...", "address": {
//	    "address_line_1": "...", "town": "...", "postcode": "SO17 1BJ"}}]}
//
// The postcode dataset geocodes a single UK postcode:
//
//	GET <root>/api/datasources/1/data/?postcode=SO17%201BJ
//	{"lat": 50.9349, "long": -1.3958}
//
// Both accept an "Authorization: Token <key>" header. The postcode dataset
// answers unauthenticated requests too, but the key is forwarded whenever
// the caller has one.
//
// # Resolution Outcomes
//
// Every address record settles into exactly one of:
//
//	success    the lookup returned coordinates; one [Marker] is produced
//	transport  the request failed or returned a non-2xx status ([ErrLookupTransport])
//	empty      the lookup succeeded without coordinates ([ErrLookupEmpty])
//
// Failed records never produce a marker; they are reported as
// [FailedLookup] values so callers can count them.
//
// # Framing
//
// [FrameMarkers] computes the flat min/max bounding region over raw
// latitude and longitude values. It has no projection correction and does
// not wrap around the antimeridian. Calling it with no markers is a
// programming error reported as [ErrEmptyMarkerSet].
package domain
