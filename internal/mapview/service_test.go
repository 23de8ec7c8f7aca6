package mapview_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/mapview"
	"github.com/couchcryptid/org-map-service/internal/observability"
	"github.com/couchcryptid/org-map-service/internal/resolver"
)

type fakeDirectory struct {
	records []domain.AddressRecord
	err     error
	towns   []string
}

func (f *fakeDirectory) Organisations(_ context.Context, town string, _ domain.Credentials) ([]domain.AddressRecord, error) {
	f.towns = append(f.towns, town)
	return f.records, f.err
}

type fakeGeocoder struct {
	results map[string]domain.GeocodingResult
}

func (f *fakeGeocoder) GeocodePostcode(_ context.Context, postcode string, _ domain.Credentials) (domain.GeocodingResult, error) {
	if r, ok := f.results[postcode]; ok {
		return r, nil
	}
	return domain.GeocodingResult{}, errors.New("connection reset")
}

type recordingPublisher struct {
	mu    sync.Mutex
	views []mapview.View
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, v mapview.View) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
	return p.err
}

var testRecords = []domain.AddressRecord{
	{OrganisationName: "Acme IoT", AddressLine1: "1 University Road", Town: "Southampton", Postcode: "AB1"},
	{OrganisationName: "Dockside Sensors", AddressLine1: "5 Dock St", Town: "Southampton", Postcode: "CD2"},
	{OrganisationName: "Broken Ltd", AddressLine1: "9 Nowhere", Town: "Southampton", Postcode: "BAD"},
}

var testGeocoder = &fakeGeocoder{results: map[string]domain.GeocodingResult{
	"AB1": {Lat: 10, Lng: 20, Found: true},
	"CD2": {Lat: 12, Lng: 18, Found: true},
}}

func newService(dir domain.Directory, pub mapview.Publisher, metrics *observability.Metrics, opts mapview.ViewOptions) *mapview.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := resolver.New(testGeocoder, logger, metrics)
	return mapview.NewService(dir, res, pub, logger, metrics, opts)
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
	return at
}

func TestBuildView_PartialFailure(t *testing.T) {
	at := freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	svc := newService(&fakeDirectory{records: testRecords}, nil, metrics, mapview.ViewOptions{FitPaddingPx: 8})

	v, err := svc.BuildView(context.Background(), "  Southampton ", domain.Credentials{})
	require.NoError(t, err)

	assert.Equal(t, "Southampton", v.Town)
	assert.Equal(t, 3, v.Requested)
	assert.Len(t, v.Markers, 2)
	require.Len(t, v.Failed, 1)
	assert.Equal(t, "BAD", v.Failed[0].Postcode)
	assert.Equal(t, domain.FailureTransport, v.Failed[0].Kind)
	assert.Empty(t, v.DirectoryError)
	assert.Equal(t, at, v.GeneratedAt)

	require.NotNil(t, v.Fit)
	assert.Equal(t, domain.BoundingRegion{MinLat: 10, MinLng: 18, MaxLat: 12, MaxLng: 20}, v.Fit.Region)
	assert.Equal(t, 8, v.Fit.PaddingPx)
	assert.Equal(t, mapview.UKBounds, v.BaseMap.InitialBounds)
	assert.Equal(t, mapview.DefaultZoom, v.BaseMap.Zoom)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.ViewMarkers))
}

func TestBuildView_NoMarkersKeepsInitialBounds(t *testing.T) {
	freezeClock(t)
	dir := &fakeDirectory{records: testRecords[2:]}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Empty(t, v.Markers)
	assert.Nil(t, v.Fit)
	assert.Len(t, v.Failed, 1)
}

func TestBuildView_DirectoryFailure(t *testing.T) {
	freezeClock(t)
	dir := &fakeDirectory{err: errors.New("dial tcp 10.0.0.1:443: connect: connection refused")}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Equal(t, 0, v.Requested)
	assert.Empty(t, v.Markers)
	assert.Nil(t, v.Fit)
	assert.Contains(t, v.DirectoryError, "connection refused")

	readyErr := svc.CheckReadiness(context.Background())
	require.Error(t, readyErr)
	assert.Contains(t, readyErr.Error(), "directory unavailable")
}

func TestCheckReadiness_IgnoresRejectedCredentials(t *testing.T) {
	freezeClock(t)
	dir := &fakeDirectory{err: fmt.Errorf("directory request: %w", &domain.PortalError{StatusCode: http.StatusUnauthorized, Body: "Invalid token."})}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{Token: "wrong"})
	require.NoError(t, err)

	assert.Contains(t, v.DirectoryError, "401")
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}

func TestCheckReadiness_PortalServerError(t *testing.T) {
	freezeClock(t)
	dir := &fakeDirectory{err: fmt.Errorf("directory request: %w", &domain.PortalError{StatusCode: http.StatusBadGateway})}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	_, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Error(t, svc.CheckReadiness(context.Background()))
}

func TestCheckReadiness_RecoversAfterSuccess(t *testing.T) {
	freezeClock(t)
	dir := &fakeDirectory{err: errors.New("dial tcp: i/o timeout")}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	require.NoError(t, svc.CheckReadiness(context.Background()), "ready before any request")

	_, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)
	require.Error(t, svc.CheckReadiness(context.Background()))

	dir.err = nil
	dir.records = testRecords[:1]
	_, err = svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}

func TestBuildView_NonFiniteCoordinatesKeepViewEncodable(t *testing.T) {
	freezeClock(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	geo := &fakeGeocoder{results: map[string]domain.GeocodingResult{
		"AB1": {Lat: math.NaN(), Lng: math.Inf(1), Found: true},
		"CD2": {Lat: 12, Lng: 18, Found: true},
	}}
	svc := mapview.NewService(&fakeDirectory{records: testRecords[:2]}, resolver.New(geo, logger, metrics), nil, logger, metrics, mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Len(t, v.Markers, 1)
	require.Len(t, v.Failed, 1)
	assert.Equal(t, "AB1", v.Failed[0].Postcode)
	require.NotNil(t, v.Fit)
	assert.Equal(t, domain.BoundingRegion{MinLat: 12, MinLng: 18, MaxLat: 12, MaxLng: 18}, v.Fit.Region)

	_, err = json.Marshal(v)
	assert.NoError(t, err)
}

func TestBuildView_BlankTown(t *testing.T) {
	dir := &fakeDirectory{records: testRecords}
	svc := newService(dir, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	_, err := svc.BuildView(context.Background(), "   ", domain.Credentials{})
	require.ErrorIs(t, err, domain.ErrBlankTown)
	assert.Empty(t, dir.towns, "directory must not be queried")
}

func TestBuildView_Publishes(t *testing.T) {
	freezeClock(t)
	pub := &recordingPublisher{}
	svc := newService(&fakeDirectory{records: testRecords}, pub, observability.NewMetricsForTesting(), mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	require.Len(t, pub.views, 1)
	assert.Equal(t, v.Town, pub.views[0].Town)
	assert.Len(t, pub.views[0].Markers, 2)
}

func TestBuildView_PublishFailureDoesNotFailRequest(t *testing.T) {
	freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(&fakeDirectory{records: testRecords}, pub, metrics, mapview.ViewOptions{})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Len(t, v.Markers, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestBuildView_CustomBaseMap(t *testing.T) {
	freezeClock(t)
	center := domain.LatLng{Lat: 50.9, Lng: -1.4}
	svc := newService(&fakeDirectory{}, nil, observability.NewMetricsForTesting(), mapview.ViewOptions{
		Center:  &center,
		Zoom:    6,
		TileURL: "https://tiles.example.test/{z}/{x}/{y}.png",
	})

	v, err := svc.BuildView(context.Background(), "Southampton", domain.Credentials{})
	require.NoError(t, err)

	assert.Equal(t, center, v.BaseMap.Center)
	assert.Equal(t, 6, v.BaseMap.Zoom)
	assert.Equal(t, "https://tiles.example.test/{z}/{x}/{y}.png", v.BaseMap.TileURL)
}
