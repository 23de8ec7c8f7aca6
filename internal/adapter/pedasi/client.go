// Package pedasi implements the organisation directory and postcode
// geocoder against a PEDASI data portal.
package pedasi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/observability"
)

const (
	DefaultBaseURL       = "https://dev.iotobservatory.io"
	DefaultDirectoryPath = "/api/datasources/2/data/"
	DefaultPostcodePath  = "/api/datasources/1/data/"
)

// Options configures a Client. Empty fields fall back to the defaults above.
type Options struct {
	BaseURL       string
	DirectoryPath string
	PostcodePath  string
	Timeout       time.Duration
	UserAgent     string
}

// Client implements domain.Directory and domain.Geocoder over HTTP.
type Client struct {
	baseURL       string
	directoryPath string
	postcodePath  string
	httpClient    *http.Client
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a portal client.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "org-map-service"
	}
	return &Client{
		baseURL:       strings.TrimRight(orDefault(opts.BaseURL, DefaultBaseURL), "/"),
		directoryPath: orDefault(opts.DirectoryPath, DefaultDirectoryPath),
		postcodePath:  orDefault(opts.PostcodePath, DefaultPostcodePath),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &headerRoundTripper{
				Transport: http.DefaultTransport,
				Headers: map[string]string{
					"Accept":     "application/json",
					"User-Agent": opts.UserAgent,
				},
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Organisations lists the organisations registered in town.
func (c *Client) Organisations(ctx context.Context, town string, creds domain.Credentials) ([]domain.AddressRecord, error) {
	var resp domain.DirectoryResponse
	if err := c.getJSON(ctx, c.directoryPath, url.Values{"town": {town}}, creds, &resp); err != nil {
		c.metrics.DirectoryRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("directory request: %w", err)
	}
	c.metrics.DirectoryRequests.WithLabelValues("success").Inc()

	records := resp.AddressRecords()
	c.logger.Debug("directory fetched", "town", town, "organisations", len(records))
	return records, nil
}

// GeocodePostcode looks up the coordinates of a postcode. A response
// without both lat and long is an empty result, not an error.
func (c *Client) GeocodePostcode(ctx context.Context, postcode string, creds domain.Credentials) (domain.GeocodingResult, error) {
	start := time.Now()
	var resp postcodeResponse
	err := c.getJSON(ctx, c.postcodePath, url.Values{"postcode": {postcode}}, creds, &resp)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("postcode request: %w", err)
	}

	if !resp.Lat.set || !resp.Long.set {
		return domain.GeocodingResult{}, nil
	}
	return domain.GeocodingResult{Lat: resp.Lat.value, Lng: resp.Long.value, Found: true}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, creds domain.Credentials, into any) error {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if auth := creds.AuthorizationHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.PortalError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Portal API response types.

type postcodeResponse struct {
	Lat  coordinate `json:"lat"`
	Long coordinate `json:"long"`
}

// coordinate accepts a JSON number or a numeric string. Null, absent and
// empty values leave it unset.
type coordinate struct {
	value float64
	set   bool
}

func (c *coordinate) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", b, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid coordinate %s: not finite", b)
	}
	c.value, c.set = v, true
	return nil
}
