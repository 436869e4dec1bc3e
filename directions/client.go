// Package directions fills in the road geometry between consecutive
// stops of a trip by querying an OSRM-compatible routing server.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"kltransit.dev/pipeline/model"
)

const DefaultBaseURL = "https://router.project-osrm.org"

type Client struct {
	BaseURL string

	// Minimum delay between requests. Public routing servers
	// throttle aggressively.
	RequestInterval time.Duration

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

func NewClient(baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:         baseURL,
		RequestInterval: 500 * time.Millisecond,
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		Logger:          logger,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Route returns the driving distance in meters and the encoded
// polyline between two points. Transient failures are retried with
// exponential backoff.
func (c *Client) Route(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (float64, string, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full",
		c.BaseURL, fromLng, fromLat, toLng, toLat)

	var distance float64
	var geometry string

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("routing server returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("routing server returned %s", resp.Status))
		}

		var body osrmResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		if body.Code != "Ok" || len(body.Routes) == 0 {
			return backoff.Permanent(fmt.Errorf("no route found (code %s)", body.Code))
		}

		distance = body.Routes[0].Distance
		geometry = body.Routes[0].Geometry
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return 0, "", err
	}
	return distance, geometry, nil
}

// PopulateSegments fills every empty stop pair segment of every trip.
// A pair that cannot be routed keeps nil distance and shape; the run
// carries on. Returns how many pairs were filled.
func (c *Client) PopulateSegments(ctx context.Context, routes []model.Route, stops []model.Stop) (int, error) {
	coords := map[int][2]float64{}
	for _, s := range stops {
		coords[s.ID] = [2]float64{s.Latitude, s.Longitude}
	}

	filled := 0
	for i := range routes {
		for j := range routes[i].Trips {
			trip := &routes[i].Trips[j]
			for k := range trip.StopPairSegments {
				seg := &trip.StopPairSegments[k]
				if seg.Distance != nil {
					continue
				}

				from, okFrom := coords[seg.FromStopID]
				to, okTo := coords[seg.ToStopID]
				if !okFrom || !okTo {
					c.Logger.Warn().
						Int("from", seg.FromStopID).
						Int("to", seg.ToStopID).
						Msg("segment references unknown stop, skipping")
					continue
				}

				if err := sleepCtx(ctx, c.RequestInterval); err != nil {
					return filled, err
				}

				distance, geometry, err := c.Route(ctx, from[0], from[1], to[0], to[1])
				if err != nil {
					if ctx.Err() != nil {
						return filled, ctx.Err()
					}
					c.Logger.Warn().Err(err).
						Int("from", seg.FromStopID).
						Int("to", seg.ToStopID).
						Msg("routing failed, leaving segment empty")
					continue
				}

				seg.Distance = &distance
				seg.SegmentShape = &geometry
				filled++
			}
		}
	}
	return filled, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
