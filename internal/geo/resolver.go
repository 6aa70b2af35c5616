// Package geo resolves human-entered locations to candidate coordinates
// through an external geocoding provider.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/boosthub/boosthub/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery is returned before the provider is ever contacted.
	ErrEmptyQuery = errors.New("empty location query")
	// ErrResolutionFailed wraps network and provider failures.
	ErrResolutionFailed = errors.New("location resolution failed")
)

// Resolver issues free-text queries against a Nominatim-style /search
// endpoint. Read-only; results are returned in provider order.
type Resolver struct {
	endpoint string
	limit    int
	httpc    *http.Client
	logger   *zap.Logger
}

// NewResolver creates a resolver for the given provider endpoint.
func NewResolver(endpoint string, maxResults int, logger *zap.Logger) *Resolver {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Resolver{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		limit:    maxResults,
		httpc:    &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve returns the provider's candidates for a free-text query, without
// re-ranking. Zero matches is an empty result, not an error.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]model.CandidateLocation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {strconv.Itoa(r.limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrResolutionFailed, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	candidates := make([]model.CandidateLocation, 0, len(results))
	for _, res := range results {
		lat, latErr := strconv.ParseFloat(res.Lat, 64)
		lon, lonErr := strconv.ParseFloat(res.Lon, 64)
		if latErr != nil || lonErr != nil {
			r.logger.Warn("skipping unparsable candidate",
				zap.String("lat", res.Lat), zap.String("lon", res.Lon))
			continue
		}
		candidates = append(candidates, model.CandidateLocation{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: res.DisplayName,
		})
	}
	return candidates, nil
}
