// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

// ErrNoPrice is returned when EODHD answers but carries no usable price.
var ErrNoPrice = errors.New("no price available")

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" || s == "NA" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "EUFUND"

	// eodLookbackDays bounds the EOD fallback to recent bars
	eodLookbackDays = 30
)

// Client implements the EODHDClient interface
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithExchange sets the exchange suffix appended to bare instrument codes
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.exchange = strings.TrimPrefix(strings.TrimSpace(exchange), ".")
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Ticker maps an instrument identifier to an EODHD symbol. Identifiers that
// already carry an exchange suffix are used as-is.
func (c *Client) Ticker(instrument string) string {
	instrument = strings.ToUpper(strings.TrimSpace(instrument))
	if strings.Contains(instrument, ".") || c.exchange == "" {
		return instrument
	}
	return instrument + "." + c.exchange
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetEOD retrieves end-of-day price data
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResponse, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "d", // descending (most recent first)
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", ticker)

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := &models.EODResponse{
		Data: make([]models.EODBar, len(bars)),
	}

	for i, bar := range bars {
		date, _ := time.Parse("2006-01-02", bar.Date)
		result.Data[i] = models.EODBar{
			Date:     date,
			Open:     float64(bar.Open),
			High:     float64(bar.High),
			Low:      float64(bar.Low),
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjustedClose),
			Volume:   int64(bar.Volume),
		}
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetRealTimeQuote retrieves the latest (delayed) quote for a ticker
func (c *Client) GetRealTimeQuote(ctx context.Context, ticker string) (*models.RealTimeQuote, error) {
	var resp realTimeResponse
	if err := c.get(ctx, fmt.Sprintf("/real-time/%s", ticker), nil, &resp); err != nil {
		return nil, err
	}

	return &models.RealTimeQuote{
		Code:      resp.Code,
		Open:      float64(resp.Open),
		High:      float64(resp.High),
		Low:       float64(resp.Low),
		Close:     float64(resp.Close),
		Volume:    int64(resp.Volume),
		Timestamp: time.Unix(int64(resp.Timestamp), 0),
	}, nil
}

// realTimeResponse represents the API response for real-time quotes
type realTimeResponse struct {
	Code      string      `json:"code"`
	Timestamp flexFloat64 `json:"timestamp"`
	Open      flexFloat64 `json:"open"`
	High      flexFloat64 `json:"high"`
	Low       flexFloat64 `json:"low"`
	Close     flexFloat64 `json:"close"`
	Volume    flexFloat64 `json:"volume"`
}

// GetPrice resolves the current NAV of an instrument. The real-time quote is
// tried first; funds that only publish end-of-day data fall back to the most
// recent EOD close.
func (c *Client) GetPrice(ctx context.Context, instrument string) (*models.PriceQuote, error) {
	ticker := c.Ticker(instrument)

	quote, rtErr := c.GetRealTimeQuote(ctx, ticker)
	if rtErr == nil && quote.Close > 0 {
		date := quote.Timestamp
		if quote.Timestamp.Unix() <= 0 {
			date = time.Time{}
		}
		return &models.PriceQuote{
			Instrument: instrument,
			Price:      decimal.NewFromFloat(quote.Close),
			Date:       date,
			Source:     "eodhd",
		}, nil
	}
	if rtErr != nil {
		c.logger.Debug().Err(rtErr).Str("ticker", ticker).Msg("Real-time quote failed, trying EOD")
	}

	from := time.Now().AddDate(0, 0, -eodLookbackDays)
	eod, err := c.GetEOD(ctx, ticker, interfaces.WithDateRange(from, time.Time{}), interfaces.WithOrder("d"))
	if err != nil {
		if rtErr != nil {
			return nil, errors.Join(rtErr, err)
		}
		return nil, err
	}
	// Newest first; skip bars without a close (holidays, pending NAV).
	for _, bar := range eod.Data {
		if bar.Close > 0 {
			return &models.PriceQuote{
				Instrument: instrument,
				Price:      decimal.NewFromFloat(bar.Close),
				Date:       bar.Date,
				Source:     "eodhd",
			}, nil
		}
	}

	return nil, fmt.Errorf("%w for %s", ErrNoPrice, ticker)
}

// Ensure Client implements EODHDClient
var _ interfaces.EODHDClient = (*Client)(nil)
