// Package resolver turns a batch of address records into map markers by
// issuing one postcode lookup per record concurrently and waiting for every
// lookup to settle.
package resolver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/observability"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxInFlight caps the number of lookups running at once. Zero or a
// negative value leaves the fan-out unbounded.
func WithMaxInFlight(n int) Option {
	return func(r *Resolver) {
		r.maxInFlight = n
	}
}

// WithRateLimit spaces lookup starts to at most perSecond per second.
// Zero or a negative value disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(r *Resolver) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			r.limiter = nil
		}
	}
}

// WithSettleHook registers a callback invoked once per record as soon as its
// lookup settles. It is called from lookup goroutines and must be safe for
// concurrent use.
func WithSettleHook(fn func(domain.LookupOutcome)) Option {
	return func(r *Resolver) {
		r.onSettle = fn
	}
}

// Resolver fans postcode lookups out over a Geocoder. It holds no state
// between calls and is safe for concurrent use.
type Resolver struct {
	geocoder    domain.Geocoder
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxInFlight int
	limiter     *rate.Limiter
	onSettle    func(domain.LookupOutcome)
}

// New creates a Resolver over the given geocoder.
func New(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve issues one lookup per record and returns once all of them have
// settled. Failed lookups are reported in Resolution.Failed and never abort
// the batch. Marker order is unspecified.
func (r *Resolver) Resolve(ctx context.Context, records []domain.AddressRecord, creds domain.Credentials) domain.Resolution {
	res := domain.Resolution{Markers: make([]domain.Marker, 0, len(records))}
	if len(records) == 0 {
		return res
	}

	start := time.Now()
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}

	for _, rec := range records {
		g.Go(func() error {
			out := r.lookup(ctx, rec, creds)

			mu.Lock()
			if out.Marker != nil {
				res.Markers = append(res.Markers, *out.Marker)
			} else {
				res.Failed = append(res.Failed, *out.Failure)
			}
			mu.Unlock()

			if r.onSettle != nil {
				r.onSettle(out)
			}
			// A failed lookup never cancels its siblings.
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("lookups settled",
		"records", len(records),
		"markers", len(res.Markers),
		"failed", len(res.Failed),
		"duration", time.Since(start),
	)
	return res
}

// ResolveMarkers is Resolve without the failure report.
func (r *Resolver) ResolveMarkers(ctx context.Context, records []domain.AddressRecord, creds domain.Credentials) []domain.Marker {
	return r.Resolve(ctx, records, creds).Markers
}

func (r *Resolver) lookup(ctx context.Context, rec domain.AddressRecord, creds domain.Credentials) domain.LookupOutcome {
	r.metrics.LookupsInFlight.Inc()
	defer r.metrics.LookupsInFlight.Dec()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("rate limiter wait aborted",
				"organisation", rec.OrganisationName,
				"postcode", rec.Postcode,
				"error", err,
			)
			out := domain.ResolveRecord(ctx, rec, cancelledGeocoder{err: err}, creds, r.logger)
			r.metrics.GeocodeRequests.WithLabelValues(outcomeLabel(out)).Inc()
			return out
		}
	}

	out := domain.ResolveRecord(ctx, rec, r.geocoder, creds, r.logger)
	r.metrics.GeocodeRequests.WithLabelValues(outcomeLabel(out)).Inc()
	return out
}

func outcomeLabel(out domain.LookupOutcome) string {
	if out.Failure != nil {
		return string(out.Failure.Kind)
	}
	return "success"
}

// cancelledGeocoder settles a lookup that never reached the network.
type cancelledGeocoder struct {
	err error
}

func (c cancelledGeocoder) GeocodePostcode(context.Context, string, domain.Credentials) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, c.err
}
