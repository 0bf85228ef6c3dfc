// Package geocode resolves latitude/longitude pairs to human-readable place
// names. Lookups are best-effort enrichment: callers must treat a failure as
// "no name", never as a failed query.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the reverse-geocoding contract consumed by the query layer.
type Client interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim is a Client backed by the OpenStreetMap Nominatim HTTP API.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNominatim creates a Nominatim client. An empty baseURL selects the
// public OpenStreetMap endpoint.
func NewNominatim(baseURL string, timeout time.Duration, logger *slog.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Nominatim{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// nominatimResponse is the subset of the /reverse JSON payload we read.
// Over open ocean the API returns an error field instead of a result.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode looks up a place name for the given coordinates. A position
// with no address (open ocean) returns an empty name and no error.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "15")
	q.Set("accept-language", "en")

	reqURL := n.baseURL + "/reverse?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "iss-tracker")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d from geocoder", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading geocoder response: %w", err)
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding geocoder response: %w", err)
	}

	if parsed.Error != "" {
		// "Unable to geocode" is the normal answer over the ocean.
		n.logger.Debug("no address for position", "lat", lat, "lon", lon, "reason", parsed.Error)
		return "", nil
	}

	return parsed.DisplayName, nil
}

// Disabled is a Client that never resolves a name; used when geocoding is
// turned off in configuration.
type Disabled struct{}

// ReverseGeocode always returns an empty name.
func (Disabled) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	return "", nil
}
