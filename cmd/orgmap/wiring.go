package main

import (
	"log/slog"

	"github.com/couchcryptid/org-map-service/internal/adapter/pedasi"
	"github.com/couchcryptid/org-map-service/internal/config"
	"github.com/couchcryptid/org-map-service/internal/mapview"
	"github.com/couchcryptid/org-map-service/internal/observability"
	"github.com/couchcryptid/org-map-service/internal/resolver"
)

// newService wires the portal client, resolver and view service from cfg.
func newService(cfg *config.Config, pub mapview.Publisher, logger *slog.Logger, metrics *observability.Metrics, extra ...resolver.Option) *mapview.Service {
	client := pedasi.NewClient(pedasi.Options{
		BaseURL:       cfg.PedasiBaseURL,
		DirectoryPath: cfg.PedasiDirectoryPath,
		PostcodePath:  cfg.PedasiPostcodePath,
		Timeout:       cfg.PedasiTimeout,
	}, logger, metrics)

	opts := append([]resolver.Option{
		resolver.WithMaxInFlight(cfg.GeocodeMaxInFlight),
		resolver.WithRateLimit(cfg.GeocodeRateLimit),
	}, extra...)
	res := resolver.New(client, logger, metrics, opts...)

	return mapview.NewService(client, res, pub, logger, metrics, mapview.ViewOptions{
		FitPaddingPx: cfg.MapFitPadding,
		H3Resolution: cfg.MapH3Resolution,
	})
}
