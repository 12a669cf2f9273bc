package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
	"polygon-ingestor/src/utils"
)

// -----------------------------------------------------------------------------
// REST client for the feed's request/response endpoints: historical
// aggregates and reference tickers. Plain request construction and typed
// response mapping; no state is shared with the streaming side.
// -----------------------------------------------------------------------------

// TimeSpan enumerates the supported aggregate window sizes.
type TimeSpan string

const (
	SpanMinute  TimeSpan = "minute"
	SpanHour    TimeSpan = "hour"
	SpanDay     TimeSpan = "day"
	SpanWeek    TimeSpan = "week"
	SpanMonth   TimeSpan = "month"
	SpanQuarter TimeSpan = "quarter"
	SpanYear    TimeSpan = "year"
)

// -----------------------------------------------------------------------------

// AggregatesRequest describes one historical-aggregates query. The end time
// is exclusive: bars at exactly EndTime are not included.
type AggregatesRequest struct {
	Symbol     string
	TimeSpan   TimeSpan
	Multiplier int
	StartTime  time.Time
	EndTime    time.Time
}

// -----------------------------------------------------------------------------

// AggregateBar is one OHLCV bar. Volume is a float because the service uses
// exponential notation for large values.
type AggregateBar struct {
	TimestampMS int64   `json:"t"`
	Volume      float64 `json:"v"`
	OpenPrice   float64 `json:"o"`
	ClosePrice  float64 `json:"c"`
	HighPrice   float64 `json:"h"`
	LowPrice    float64 `json:"l"`
}

// -----------------------------------------------------------------------------

// AggregatesResponse is the typed envelope of the aggregates endpoint.
type AggregatesResponse struct {
	Ticker       string         `json:"ticker"`
	Status       string         `json:"status"`
	QueryCount   int            `json:"queryCount"`
	ResultsCount int            `json:"resultsCount"`
	Results      []AggregateBar `json:"results"`
}

// -----------------------------------------------------------------------------

// Ticker is one reference-data entry. Not all fields the endpoint returns
// are represented here.
type Ticker struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Market   string `json:"market"`
	Locale   string `json:"locale"`
	Currency string `json:"currency"`
	Active   bool   `json:"active"`
}

// -----------------------------------------------------------------------------

// TickersResponse is the typed envelope of the reference tickers endpoint.
// The service keys the list as "ticker", singular.
type TickersResponse struct {
	Status  string   `json:"status"`
	Count   int      `json:"count"`
	Tickers []Ticker `json:"ticker"`
}

// -----------------------------------------------------------------------------

// Client issues REST requests against the feed's API endpoint.
type Client struct {
	Name       string
	Config     *models.MFeedConfig
	Logger     *logger.Logger
	HttpClient *http.Client
}

// -----------------------------------------------------------------------------

// NewClient creates a REST client from the feed configuration.
func NewClient(config *models.MFeedConfig, logger *logger.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		Name:   "RESTClient",
		Config: config,
		Logger: logger,
		HttpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// -----------------------------------------------------------------------------

// GetAggregates fetches historical OHLCV bars for one symbol.
func (c *Client) GetAggregates(ctx context.Context, request AggregatesRequest) (*AggregatesResponse, error) {
	if request.Symbol == "" {
		return nil, fmt.Errorf("aggregates request: symbol cannot be empty")
	}
	if request.Multiplier <= 0 {
		return nil, fmt.Errorf("aggregates request: multiplier must be positive")
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(request.Symbol),
		request.Multiplier,
		request.TimeSpan,
		utils.FormatDate(request.StartTime),
		utils.FormatDate(request.EndTime),
	)

	var response AggregatesResponse
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// -----------------------------------------------------------------------------

// GetTickers fetches the reference ticker list.
func (c *Client) GetTickers(ctx context.Context) (*TickersResponse, error) {
	var response TickersResponse
	if err := c.get(ctx, "/v2/reference/tickers/", &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// -----------------------------------------------------------------------------

// get issues one authenticated GET request and decodes the JSON body into
// the target struct.
func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	endpoint := c.Config.APIURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	query := req.URL.Query()
	query.Set("apiKey", c.Config.APIKey)
	req.URL.RawQuery = query.Encode()

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed for %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response for %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("%s : unexpected status %d for %s", c.Name, resp.StatusCode, path)
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}
	return nil
}
