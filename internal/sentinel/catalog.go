// Package sentinel implements the Copernicus Data Space Ecosystem
// collaborators: the catalog search used to pick acquisitions and the
// process-API fetch that delivers reflectance bands.
package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/properties"
)

// Client talks to the CDSE catalog and process APIs with one OAuth2
// client-credentials identity. Construct it once and inject it; there is no
// package-level configuration.
type Client struct {
	httpClient *http.Client
	baseURL    string
	collection string
}

// NewClient builds a client from the injected configuration. The returned
// http.Client refreshes its bearer token automatically.
func NewClient(cfg properties.CopernicusConfig) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &Client{
		httpClient: cc.Client(context.Background()),
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
	}
}

// NewClientWithHTTP is the test seam: it skips the OAuth2 transport.
func NewClientWithHTTP(httpClient *http.Client, baseURL, collection string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, collection: collection}
}

type catalogSearchRequest struct {
	BBox        [4]float64 `json:"bbox"`
	Datetime    string     `json:"datetime"`
	Collections []string   `json:"collections"`
	Limit       int        `json:"limit"`
	Filter      string     `json:"filter"`
	FilterLang  string     `json:"filter-lang"`
}

type catalogFeature struct {
	ID         string `json:"id"`
	Properties struct {
		Datetime   string  `json:"datetime"`
		CloudCover float64 `json:"eo:cloud_cover"`
	} `json:"properties"`
}

type catalogSearchResponse struct {
	Features []catalogFeature `json:"features"`
}

// Search queries the catalog for scenes intersecting the footprint within the
// interval, filtered server-side to cloud cover at or below the ceiling.
// Zero features is a normal result and returns an empty slice; transport and
// decoding faults come back as *ndvi.ProviderError.
func (c *Client) Search(ctx context.Context, fp geo.Footprint, iv ndvi.Interval, cloudCeiling float64, limit int) ([]ndvi.Acquisition, error) {
	payload := catalogSearchRequest{
		BBox:        fp.BBox(),
		Datetime:    fmt.Sprintf("%s/%s", dayStart(iv.Start), dayEnd(iv.End)),
		Collections: []string{c.collection},
		Limit:       limit,
		Filter:      fmt.Sprintf("eo:cloud_cover <= %g", cloudCeiling*100),
		FilterLang:  "cql2-text",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ndvi.ProviderError{Op: "catalog search", Err: err}
	}

	url := c.baseURL + "/api/v1/catalog/1.0.0/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ndvi.ProviderError{Op: "catalog search", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ndvi.ProviderError{Op: "catalog search", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ndvi.ProviderError{
			Op:  "catalog search",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg),
		}
	}

	var decoded catalogSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ndvi.ProviderError{Op: "catalog search", Err: err}
	}

	acquisitions := make([]ndvi.Acquisition, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		captured, err := time.Parse(time.RFC3339, f.Properties.Datetime)
		if err != nil {
			return nil, &ndvi.ProviderError{
				Op:  "catalog search",
				Err: fmt.Errorf("feature %s has malformed datetime %q: %w", f.ID, f.Properties.Datetime, err),
			}
		}
		acquisitions = append(acquisitions, ndvi.Acquisition{
			ID:            f.ID,
			CaptureDate:   captured.UTC().Truncate(24 * time.Hour),
			CloudFraction: f.Properties.CloudCover / 100,
		})
	}
	return acquisitions, nil
}

func dayStart(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func dayEnd(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC).Format(time.RFC3339)
}
