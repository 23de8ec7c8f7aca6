package domain

import "fmt"

// BoundingRegion is an axis-aligned latitude/longitude rectangle.
type BoundingRegion struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// FrameMarkers returns the smallest region covering every marker. The result
// depends only on the multiset of coordinates, not on their order.
// It returns ErrEmptyMarkerSet when markers is empty.
func FrameMarkers(markers []Marker) (BoundingRegion, error) {
	if len(markers) == 0 {
		return BoundingRegion{}, ErrEmptyMarkerSet
	}

	r := BoundingRegion{
		MinLat: markers[0].Lat,
		MinLng: markers[0].Lng,
		MaxLat: markers[0].Lat,
		MaxLng: markers[0].Lng,
	}
	for _, m := range markers[1:] {
		r.MinLat = min(r.MinLat, m.Lat)
		r.MaxLat = max(r.MaxLat, m.Lat)
		r.MinLng = min(r.MinLng, m.Lng)
		r.MaxLng = max(r.MaxLng, m.Lng)
	}
	return r, nil
}

// Corners returns the south-west and north-east corners, the pair most map
// widgets accept when fitting bounds.
func (r BoundingRegion) Corners() [2]LatLng {
	return [2]LatLng{
		{Lat: r.MinLat, Lng: r.MinLng},
		{Lat: r.MaxLat, Lng: r.MaxLng},
	}
}

// Center returns the midpoint of the region.
func (r BoundingRegion) Center() LatLng {
	return LatLng{
		Lat: (r.MinLat + r.MaxLat) / 2,
		Lng: (r.MinLng + r.MaxLng) / 2,
	}
}

func (r BoundingRegion) String() string {
	return fmt.Sprintf("[%.6f,%.6f]-[%.6f,%.6f]", r.MinLat, r.MinLng, r.MaxLat, r.MaxLng)
}
