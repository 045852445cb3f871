// Package bybit implements a read-only client for the Bybit v5 public
// market endpoints. Responses are normalized into the canonical Kline,
// Trade, and BookLevel types; heterogeneous payload shapes are decoded
// here so callers never see raw JSON.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"bybit-analyzer-bot/internal/metrics"
)

const defaultBaseURL = "https://api.bybit.com"

type Client struct {
	baseURL    string
	category   string
	retries    int
	backoff    time.Duration // unit for the 1s, 2s, 3s retry ramp
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a client for Bybit linear perpetual market data.
// retries <= 0 falls back to 3 attempts, timeout <= 0 to 10s.
func NewClient(baseURL string, retries int, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if retries <= 0 {
		retries = 3
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		category:   "linear",
		retries:    retries,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}
}

// apiResponse is the common Bybit v5 envelope.
type apiResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// getWithRetry issues a GET and retries transient failures with an
// increasing 1s, 2s, 3s pause between attempts. Context cancellation
// aborts the wait.
func (c *Client) getWithRetry(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			metrics.FetchRetriesTotal.WithLabelValues(path).Inc()
			select {
			case <-time.After(time.Duration(attempt) * c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.getOnce(ctx, endpoint)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("bybit request failed")
	}
	return nil, fmt.Errorf("all %d attempts failed for %s: %w", c.retries, path, lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error issuing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("error parsing response envelope: %w", err)
	}
	if envelope.RetCode != 0 {
		return nil, fmt.Errorf("API error: retCode %d: %s", envelope.RetCode, envelope.RetMsg)
	}
	return envelope.Result, nil
}

// GetKlines fetches candlesticks for the given interval, returned oldest
// first. Bybit serves the list newest first; the order is reversed here
// so callers can always read the most recent bar from the tail.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	result, err := c.getWithRetry(ctx, "/v5/market/kline", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching klines: %w", err)
	}

	var payload struct {
		List [][]interface{} `json:"list"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	klines := make([]Kline, 0, len(payload.List))
	for i := len(payload.List) - 1; i >= 0; i-- {
		row := payload.List[i]
		if len(row) < 6 {
			continue
		}
		klines = append(klines, Kline{
			OpenTime: int64(toFloat(row[0])),
			Open:     toFloat(row[1]),
			High:     toFloat(row[2]),
			Low:      toFloat(row[3]),
			Close:    toFloat(row[4]),
			Volume:   toFloat(row[5]),
		})
	}
	return klines, nil
}

// GetFundingRate fetches the latest funding rate for symbol. The second
// return reports presence: an empty or unparsable history is a valid
// absent state, not an error.
func (c *Client) GetFundingRate(ctx context.Context, symbol string) (float64, bool, error) {
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("limit", "1")

	result, err := c.getWithRetry(ctx, "/v5/market/funding/history", params)
	if err != nil {
		return 0, false, fmt.Errorf("error fetching funding rate: %w", err)
	}

	var payload struct {
		List []struct {
			FundingRate string `json:"fundingRate"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return 0, false, nil
	}
	if len(payload.List) == 0 {
		return 0, false, nil
	}
	rate, err := strconv.ParseFloat(payload.List[0].FundingRate, 64)
	if err != nil {
		return 0, false, nil
	}
	return rate, true, nil
}

// GetOrderBook fetches a depth snapshot. Bybit has served this payload in
// several shapes (bid/ask arrays, a list of tuples, a list of keyed
// records, and a double-encoded string); all of them normalize into
// BookLevel entries, and malformed entries are skipped.
func (c *Client) GetOrderBook(ctx context.Context, symbol string, depth int) ([]BookLevel, error) {
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(depth))

	result, err := c.getWithRetry(ctx, "/v5/market/orderbook", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching orderbook: %w", err)
	}

	// Canonical v5 shape: separate bid and ask arrays of [price, size].
	var canonical struct {
		Bids [][]interface{} `json:"b"`
		Asks [][]interface{} `json:"a"`
	}
	if err := json.Unmarshal(result, &canonical); err == nil &&
		(len(canonical.Bids) > 0 || len(canonical.Asks) > 0) {
		levels := make([]BookLevel, 0, len(canonical.Bids)+len(canonical.Asks))
		for _, row := range canonical.Bids {
			if len(row) < 2 {
				continue
			}
			levels = append(levels, BookLevel{Side: "buy", Price: toFloat(row[0]), Size: toFloat(row[1])})
		}
		for _, row := range canonical.Asks {
			if len(row) < 2 {
				continue
			}
			levels = append(levels, BookLevel{Side: "sell", Price: toFloat(row[0]), Size: toFloat(row[1])})
		}
		return levels, nil
	}

	entries := unwrapList(result)
	levels := make([]BookLevel, 0, len(entries))
	for _, entry := range entries {
		level, ok := decodeLevelEntry(entry)
		if !ok {
			c.log.Debug().Str("symbol", symbol).Msg("skipping malformed orderbook entry")
			continue
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// GetRecentTrades fetches the public trade window for symbol. Unparsable
// records are skipped so one bad entry never discards the window.
func (c *Client) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]Trade, error) {
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	result, err := c.getWithRetry(ctx, "/v5/market/recent-trade", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching trades: %w", err)
	}

	entries := unwrapList(result)
	trades := make([]Trade, 0, len(entries))
	for _, entry := range entries {
		trade, ok := decodeTradeEntry(entry)
		if !ok {
			c.log.Debug().Str("symbol", symbol).Msg("skipping malformed trade entry")
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}
