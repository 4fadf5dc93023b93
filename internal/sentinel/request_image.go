package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
)

// groundResolution is the Sentinel-2 native resolution for B04/B08, meters.
const groundResolution = 10

// evalscriptBands is the band-selection micro-program executed by the remote
// processing engine. It is an opaque payload of the process-API contract:
// red (B04), near-infrared (B08) and the provider data mask, float32.
const evalscriptBands = `
//VERSION=3
function setup() {
  return {
    input: [{ bands: ["B04", "B08", "dataMask"] }],
    output: { id: "default", bands: 3, sampleType: SampleType.FLOAT32 },
  };
}

function evaluatePixel(sample) {
  return [sample.B04, sample.B08, sample.dataMask];
}
`

const (
	fetchRetries    = 3
	fetchRetryDelay = 2 * time.Second
)

// FetchBands downloads the red/NIR band pair plus data mask for one capture
// day over the footprint, at 10 m ground resolution. Transient failures are
// retried a few times; anything that still fails surfaces as a
// *ndvi.ProviderError so the assembler records a gap and moves on.
func (c *Client) FetchBands(ctx context.Context, fp geo.Footprint, day time.Time) (ndvi.BandPair, error) {
	width, height := fp.PixelSize(groundResolution)

	payload := map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"bbox": fp.BBox(),
				"properties": map[string]interface{}{
					"crs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
				},
			},
			"data": []map[string]interface{}{
				{
					"type": c.collection,
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": dayStart(day),
							"to":   dayEnd(day),
						},
					},
				},
			},
		},
		"output": map[string]interface{}{
			"width":  width,
			"height": height,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format":     map[string]string{"type": "image/tiff"},
				},
			},
		},
		"evalscript": evalscriptBands,
		"mosaicking": "mostRecent",
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return ndvi.BandPair{}, &ndvi.ProviderError{Op: "pixel fetch", Err: err}
	}

	tiff, err := c.postProcess(ctx, requestBody)
	if err != nil {
		return ndvi.BandPair{}, &ndvi.ProviderError{Op: "pixel fetch", Err: err}
	}

	pair, err := decodeBandPair(tiff)
	if err != nil {
		return ndvi.BandPair{}, &ndvi.ProviderError{Op: "pixel fetch", Err: err}
	}
	return pair, nil
}

func (c *Client) postProcess(ctx context.Context, requestBody []byte) ([]byte, error) {
	url := c.baseURL + "/api/v1/process"

	var lastErr error
	for attempt := 1; attempt <= fetchRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/tiff")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode == http.StatusOK {
				return body, nil
			} else {
				lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 512))
				// Auth failures will not heal on retry.
				if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
					return nil, lastErr
				}
			}
		}

		if attempt < fetchRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", fetchRetries, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
