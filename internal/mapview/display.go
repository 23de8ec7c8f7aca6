package mapview

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/couchcryptid/org-map-service/internal/domain"
)

// Base map defaults used by the browser widget.
const (
	DefaultTileURL      = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultZoom         = 10
	DefaultH3Resolution = 7
)

var (
	// DefaultCenter is where the map opens before any markers are known.
	DefaultCenter = domain.LatLng{Lat: 17.385044, Lng: 78.486671}

	// UKBounds is the initial viewport, replaced by the marker frame once
	// lookups settle.
	UKBounds = domain.BoundingRegion{
		MinLat: 49.82380908513249,
		MinLng: -10.8544921875,
		MaxLat: 59.478568831926395,
		MaxLng: 2.021484375,
	}
)

// Display is the rendering surface the service draws on.
type Display interface {
	RenderBaseMap(center domain.LatLng, zoom int)
	AddMarker(lat, lng float64, popupHTML string)
	FitView(region domain.BoundingRegion, paddingPx int)
}

// View is the JSON document a browser map widget renders.
type View struct {
	Town           string                `json:"town"`
	BaseMap        BaseMap               `json:"base_map"`
	Markers        []MarkerView          `json:"markers"`
	Clusters       []Cluster             `json:"clusters"`
	Fit            *Fit                  `json:"fit,omitempty"`
	Requested      int                   `json:"requested"`
	Failed         []domain.FailedLookup `json:"failed,omitempty"`
	DirectoryError string                `json:"directory_error,omitempty"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

type BaseMap struct {
	Center        domain.LatLng         `json:"center"`
	Zoom          int                   `json:"zoom"`
	TileURL       string                `json:"tile_url"`
	InitialBounds domain.BoundingRegion `json:"initial_bounds"`
}

type MarkerView struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PopupHTML string  `json:"popup_html"`
	Cell      string  `json:"h3_cell,omitempty"`
}

// Cluster groups the markers sharing an H3 cell. Center is the mean of the
// member positions.
type Cluster struct {
	Cell   string        `json:"h3_cell"`
	Center domain.LatLng `json:"center"`
	Count  int           `json:"count"`
}

type Fit struct {
	Region    domain.BoundingRegion `json:"region"`
	Corners   [2]domain.LatLng      `json:"corners"`
	PaddingPx int                   `json:"padding_px"`
}

// ViewBuilder implements Display by recording every call into a View.
// It is not safe for concurrent use.
type ViewBuilder struct {
	tileURL      string
	h3Resolution int
	logger       *slog.Logger

	view     View
	clusters map[string]*clusterAcc
}

type clusterAcc struct {
	latSum, lngSum float64
	count          int
}

// NewViewBuilder starts an empty view for town. The resolution must be a
// valid H3 resolution (0-15).
func NewViewBuilder(town, tileURL string, h3Resolution int, logger *slog.Logger) *ViewBuilder {
	if tileURL == "" {
		tileURL = DefaultTileURL
	}
	return &ViewBuilder{
		tileURL:      tileURL,
		h3Resolution: h3Resolution,
		logger:       logger,
		view: View{
			Town:    town,
			Markers: []MarkerView{},
		},
		clusters: make(map[string]*clusterAcc),
	}
}

func (b *ViewBuilder) RenderBaseMap(center domain.LatLng, zoom int) {
	b.view.BaseMap = BaseMap{
		Center:        center,
		Zoom:          zoom,
		TileURL:       b.tileURL,
		InitialBounds: UKBounds,
	}
}

func (b *ViewBuilder) AddMarker(lat, lng float64, popupHTML string) {
	mv := MarkerView{Lat: lat, Lng: lng, PopupHTML: popupHTML}

	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), b.h3Resolution)
	if err != nil {
		b.logger.Warn("h3 cell lookup failed", "lat", lat, "lng", lng, "error", err)
	} else {
		mv.Cell = cell.String()
		acc, ok := b.clusters[mv.Cell]
		if !ok {
			acc = &clusterAcc{}
			b.clusters[mv.Cell] = acc
		}
		acc.latSum += lat
		acc.lngSum += lng
		acc.count++
	}

	b.view.Markers = append(b.view.Markers, mv)
}

func (b *ViewBuilder) FitView(region domain.BoundingRegion, paddingPx int) {
	b.view.Fit = &Fit{
		Region:    region,
		Corners:   region.Corners(),
		PaddingPx: paddingPx,
	}
}

// View returns the recorded document. Clusters are ordered by descending
// size, then by cell.
func (b *ViewBuilder) View() View {
	v := b.view
	v.Markers = slices.Clone(b.view.Markers)
	v.Clusters = make([]Cluster, 0, len(b.clusters))
	for cell, acc := range b.clusters {
		n := float64(acc.count)
		v.Clusters = append(v.Clusters, Cluster{
			Cell:   cell,
			Center: domain.LatLng{Lat: acc.latSum / n, Lng: acc.lngSum / n},
			Count:  acc.count,
		})
	}
	slices.SortFunc(v.Clusters, func(a, b Cluster) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Cell, b.Cell)
	})
	return v
}
