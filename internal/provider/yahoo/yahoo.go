package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alphatic/alphatic/internal/core"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/spark"

// validSymbol matches stock symbols like AAPL, MSFT, BRK-B, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9\-^]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo fetches adjusted-close history through the Yahoo Finance spark
// endpoint, which accepts a comma-separated symbol list, so the whole ticker
// set costs one upstream round trip.
type Yahoo struct {
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// Option configures the provider.
type Option func(*Yahoo)

// WithBaseURL points the provider at an alternate endpoint (tests use an
// httptest server).
func WithBaseURL(u string) Option {
	return func(y *Yahoo) { y.baseURL = u }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(y *Yahoo) { y.client = c }
}

// WithClock replaces the wall clock used to compute the request range.
func WithClock(now func() time.Time) Option {
	return func(y *Yahoo) { y.now = now }
}

// New creates a new Yahoo provider.
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchTable fetches daily adjusted closes for the ticker set in one call
// and normalizes the response into a PriceTable covering [start, end].
func (y *Yahoo) FetchTable(ctx context.Context, tickers []string, start, end time.Time) (core.PriceTable, error) {
	if len(tickers) == 0 {
		return core.PriceTable{}, core.WrapErrorf(core.ErrNoUpstreamData, "empty ticker set")
	}

	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)
	for _, sym := range sorted {
		if err := validateSymbol(sym); err != nil {
			return core.PriceTable{}, core.WrapError(core.ErrMalformedResponse, err)
		}
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(sorted, ","))
	q.Set("interval", "1d")
	q.Set("range", y.sparkRange(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return core.PriceTable{}, core.WrapError(core.ErrUnreachable, err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return core.PriceTable{}, core.WrapErrorf(core.ErrUnreachable, "fetching %v: %v", sorted, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return core.PriceTable{}, core.WrapErrorf(core.ErrNoUpstreamData, "no data for %v", sorted)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return core.PriceTable{}, core.WrapErrorf(core.ErrUnreachable, "status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return core.PriceTable{}, core.WrapErrorf(core.ErrMalformedResponse, "unexpected status: %d", resp.StatusCode)
	}

	var result sparkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.PriceTable{}, core.WrapErrorf(core.ErrMalformedResponse, "decoding response: %v", err)
	}

	if result.Spark.Error != nil {
		return core.PriceTable{}, core.WrapErrorf(core.ErrMalformedResponse,
			"upstream error: %s (%s)", result.Spark.Error.Description, result.Spark.Error.Code)
	}

	// Absent result array is the upstream's "nothing here" shape.
	if len(result.Spark.Result) == 0 {
		return core.PriceTable{}, core.WrapErrorf(core.ErrNoUpstreamData,
			"empty result for %v [%s..%s]", sorted, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	table := core.PriceTable{
		Window: core.Window{Start: start, End: end},
		Series: make(map[string]core.PriceSeries, len(sorted)),
	}

	nonEmpty := 0
	for _, item := range result.Spark.Result {
		series, err := y.normalize(item, start, end)
		if err != nil {
			return core.PriceTable{}, err
		}
		table.Series[series.Ticker] = series
		if series.Len() > 0 {
			nonEmpty++
		}
	}

	// A single-column response to a multi-ticker request, or rows missing for
	// some tickers, leaves legitimate gaps: those tickers get empty series,
	// which is a representable state, not an error.
	for _, sym := range sorted {
		if _, ok := table.Series[sym]; !ok {
			table.Series[sym] = core.PriceSeries{Ticker: sym}
		}
	}

	if nonEmpty == 0 {
		return core.PriceTable{}, core.WrapErrorf(core.ErrNoUpstreamData,
			"all series empty for %v [%s..%s]", sorted, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return table, nil
}

// normalize converts one spark result item into a PriceSeries, skipping null
// closes and enforcing strictly increasing dates.
func (y *Yahoo) normalize(item sparkResult, start, end time.Time) (core.PriceSeries, error) {
	series := core.PriceSeries{Ticker: item.Symbol}
	if item.Symbol == "" {
		return series, core.WrapErrorf(core.ErrMalformedResponse, "result item missing symbol")
	}
	if len(item.Response) == 0 {
		return series, nil
	}

	r := item.Response[0]
	if len(r.Timestamp) == 0 {
		return series, nil
	}
	if len(r.Indicators.Quote) == 0 {
		return series, core.WrapErrorf(core.ErrMalformedResponse,
			"%s: timestamps without quote block", item.Symbol)
	}

	closes := r.Indicators.Quote[0].Close
	if len(closes) != len(r.Timestamp) {
		return series, core.WrapErrorf(core.ErrMalformedResponse,
			"%s: %d timestamps but %d closes", item.Symbol, len(r.Timestamp), len(closes))
	}

	var lastDate time.Time
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue // partially-populated row
		}
		date := time.Unix(int64(ts), 0).UTC().Truncate(24 * time.Hour)
		if date.Before(start) || date.After(end) {
			continue
		}
		if !date.After(lastDate) {
			continue // duplicate trading day, keep the first
		}
		series.Points = append(series.Points, core.PricePoint{Date: date, Close: *closes[i]})
		lastDate = date
	}

	return series, nil
}

// sparkRange maps a requested start date onto the narrowest range bucket the
// spark endpoint accepts that still covers it. The response is trimmed back
// to the exact window in normalize.
func (y *Yahoo) sparkRange(start time.Time) string {
	age := y.now().Sub(start)
	switch {
	case age <= 30*24*time.Hour:
		return "1mo"
	case age <= 91*24*time.Hour:
		return "3mo"
	case age <= 182*24*time.Hour:
		return "6mo"
	case age <= 365*24*time.Hour:
		return "1y"
	case age <= 2*365*24*time.Hour:
		return "2y"
	case age <= 5*365*24*time.Hour:
		return "5y"
	case age <= 10*365*24*time.Hour:
		return "10y"
	default:
		return "max"
	}
}

// Yahoo spark API response types
type sparkResponse struct {
	Spark struct {
		Result []sparkResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"spark"`
}

type sparkResult struct {
	Symbol   string          `json:"symbol"`
	Response []sparkSnapshot `json:"response"`
}

type sparkSnapshot struct {
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}
