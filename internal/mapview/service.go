// Package mapview assembles an organisation map for a town: it fetches the
// directory, resolves every postcode, and draws the markers onto a Display
// framed around the results.
package mapview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/observability"
	"github.com/couchcryptid/org-map-service/internal/resolver"
)

// Publisher receives every view the service builds.
type Publisher interface {
	Publish(ctx context.Context, view View) error
}

// ViewOptions tunes how views are drawn. Zero values select the defaults.
type ViewOptions struct {
	FitPaddingPx int
	H3Resolution int
	TileURL      string
	Center       *domain.LatLng
	Zoom         int
}

func (o ViewOptions) withDefaults() ViewOptions {
	if o.H3Resolution == 0 {
		o.H3Resolution = DefaultH3Resolution
	}
	if o.TileURL == "" {
		o.TileURL = DefaultTileURL
	}
	if o.Center == nil {
		c := DefaultCenter
		o.Center = &c
	}
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	return o
}

// Service builds map views. A nil Publisher disables publishing.
type Service struct {
	directory domain.Directory
	resolver  *resolver.Resolver
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      ViewOptions

	mu           sync.RWMutex
	directoryErr error
}

func NewService(dir domain.Directory, res *resolver.Resolver, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, opts ViewOptions) *Service {
	return &Service{
		directory: dir,
		resolver:  res,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
		opts:      opts.withDefaults(),
	}
}

// BuildView produces the map of the organisations registered in town.
// A directory failure yields an empty map with DirectoryError set; failed
// lookups are listed in View.Failed. The only error is ErrBlankTown.
func (s *Service) BuildView(ctx context.Context, town string, creds domain.Credentials) (View, error) {
	town = strings.TrimSpace(town)
	if town == "" {
		return View{}, domain.ErrBlankTown
	}

	records, dirErr := s.directory.Organisations(ctx, town, creds)
	if domain.IsCallerFault(dirErr) {
		// The portal answered, so it is reachable.
		s.setDirectoryErr(nil)
	} else {
		s.setDirectoryErr(dirErr)
	}
	if dirErr != nil {
		s.logger.Error("directory request failed", "town", town, "error", dirErr)
		records = nil
	}

	res := s.resolver.Resolve(ctx, records, creds)

	b := NewViewBuilder(town, s.opts.TileURL, s.opts.H3Resolution, s.logger)
	Draw(b, res.Markers, *s.opts.Center, s.opts.Zoom, s.opts.FitPaddingPx)

	view := b.View()
	view.Requested = len(records)
	view.Failed = res.Failed
	view.GeneratedAt = domain.Now()
	if dirErr != nil {
		view.DirectoryError = dirErr.Error()
	}
	s.metrics.ViewMarkers.Observe(float64(len(view.Markers)))

	s.logger.Info("map view built",
		"town", town,
		"organisations", len(records),
		"markers", len(view.Markers),
		"failed", len(view.Failed),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, view); err != nil {
			s.metrics.PublishErrors.Inc()
			s.logger.Warn("publish map view failed", "town", town, "error", err)
		}
	}
	return view, nil
}

// Draw renders the base map, adds one marker per entry and, when there is at
// least one marker, fits the display to their bounding region.
func Draw(d Display, markers []domain.Marker, center domain.LatLng, zoom, paddingPx int) {
	d.RenderBaseMap(center, zoom)
	for _, m := range markers {
		p := m.Position()
		d.AddMarker(p.Lat, p.Lng, m.AddressHTML)
	}

	region, err := domain.FrameMarkers(markers)
	if err != nil {
		return
	}
	d.FitView(region, paddingPx)
}

// CheckReadiness reports an error while the most recent directory request
// failed on the network or with a 5xx. Requests the portal rejected with a
// 4xx do not affect readiness.
func (s *Service) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.directoryErr != nil {
		return fmt.Errorf("directory unavailable: %w", s.directoryErr)
	}
	return nil
}

func (s *Service) setDirectoryErr(err error) {
	s.mu.Lock()
	s.directoryErr = err
	s.mu.Unlock()
}
