// Package statsclient is the HTTP client for a visit aggregator running as
// a remote service. It speaks the aggregator's wire contract: POST /hit to
// record a visit, GET /stats to query per-URI counts. Timestamps cross the
// wire in the platform's fixed textual pattern.
package statsclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/explore-with-me/ewm-go/ewm"
	"github.com/explore-with-me/ewm-go/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	hitPath   = "/hit"
	statsPath = "/stats"

	defaultTimeout = 5 * time.Second
)

// endpointHit is the wire form of a hit record.
type endpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// viewStats is the wire form of one per-URI count.
type viewStats struct {
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Client talks to a remote visit aggregator. It implements the view-count
// contract the event search engine consumes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ewm.Logger
}

// Option defines a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(logger ewm.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the aggregator at baseURL.
func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// RecordHit sends one hit record to the aggregator.
func (c *Client) RecordHit(ctx context.Context, app string, uri string, origin string, timestamp time.Time) error {
	body, err := json.Marshal(endpointHit{
		App:       app,
		URI:       uri,
		IP:        origin,
		Timestamp: ewm.FormatTime(timestamp),
	})
	if err != nil {
		return fmt.Errorf("marshaling hit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+hitPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending hit: %w", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp)
	}

	return nil
}

// Stats asks the aggregator for per-URI counts over [start, end], restricted
// to the given URI set unless it is nil, deduplicated by origin when unique
// is set. The aggregator's count-descending order is preserved.
func (c *Client) Stats(
	ctx context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) ([]stats.ViewStats, error) {

	params := url.Values{}
	params.Set("start", ewm.FormatTime(start))
	params.Set("end", ewm.FormatTime(end))
	params.Set("unique", strconv.FormatBool(unique))

	for _, uri := range uris {
		params.Add("uris", uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building stats request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(resp)
	}

	var wireStats []viewStats
	if err := json.NewDecoder(resp.Body).Decode(&wireStats); err != nil {
		return nil, fmt.Errorf("decoding stats response: %w", err)
	}

	viewStats := make([]stats.ViewStats, 0, len(wireStats))
	for _, vs := range wireStats {
		viewStats = append(viewStats, stats.ViewStats{URI: vs.URI, Hits: vs.Hits})
	}

	return viewStats, nil
}

// Query is the map-shaped form of Stats, keyed by URI. It satisfies the
// view-count contract the event search engine consumes; URIs without any
// matching hit are absent from the returned map.
func (c *Client) Query(
	ctx context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) (map[string]int64, error) {

	viewStats, err := c.Stats(ctx, start, end, uris, unique)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(viewStats))
	for _, vs := range viewStats {
		counts[vs.URI] = vs.Hits
	}

	return counts, nil
}

func (c *Client) statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusBadRequest {
		return ewm.InvalidArgumentError("stats service rejected the request")
	}

	return fmt.Errorf("stats service responded with status %d", resp.StatusCode)
}

func (c *Client) closeBody(body io.ReadCloser) {
	if closeErr := body.Close(); closeErr != nil && c.logger != nil {
		c.logger.Warn("failed to close stats response body", "error", closeErr.Error())
	}
}
