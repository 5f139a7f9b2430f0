package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/signalist/alert-monitor/internal/monitor"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Client fetches market snapshots from the Finnhub indicator endpoint. One
// call per symbol returns daily closes, volumes, and a server-computed RSI
// series, which is everything a snapshot needs.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL overrides the API host, for tests and proxies.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type indicatorResponse struct {
	Status string    `json:"s"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
	RSI    []float64 `json:"rsi"`
}

// FetchSnapshot returns the current snapshot for one symbol. Missing series
// in the response leave the corresponding snapshot fields nil rather than
// failing the whole fetch.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*monitor.Snapshot, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -45) // enough daily candles for a 14-period RSI

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("indicator", "rsi")
	q.Set("timeperiod", "14")
	q.Set("from", fmt.Sprintf("%d", from.Unix()))
	q.Set("to", fmt.Sprintf("%d", now.Unix()))
	q.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/indicator?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finnhub indicator %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finnhub indicator %s: status %d", symbol, resp.StatusCode)
	}

	var ind indicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&ind); err != nil {
		return nil, fmt.Errorf("decode indicator %s: %w", symbol, err)
	}
	if ind.Status != "ok" || len(ind.Close) == 0 {
		return nil, fmt.Errorf("finnhub indicator %s: no data", symbol)
	}

	snap := &monitor.Snapshot{
		Symbol:    symbol,
		Price:     lastValue(ind.Close),
		RSI:       lastValue(ind.RSI),
		Volume:    lastValue(ind.Volume),
		FetchedAt: time.Now(),
	}
	if len(ind.Volume) >= 2 {
		snap.PrevVolume = lastValue(ind.Volume[:len(ind.Volume)-1])
	}
	return snap, nil
}

// lastValue returns the last usable element of a series. Finnhub pads the
// warm-up period of indicator series with zeros and occasionally NaN.
func lastValue(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
