// Package forex fetches exchange-rate quotes from a REST endpoint.
package forex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Quote is one snapshot of exchange rates relative to the feed's own base
// currency. Rate values are parsed from the feed's decimal strings.
type Quote struct {
	Date  string
	Base  string
	Rates map[string]float64
}

// ratesResponse mirrors the feed's JSON payload: rates are decimal strings
// keyed by currency code.
type ratesResponse struct {
	Date  string            `json:"date"`
	Base  string            `json:"base"`
	Rates map[string]string `json:"rates"`
}

// Client fetches quotes from a rates endpoint. Construct it with the HTTP
// client to use, so callers control timeouts and tests can inject a stub
// server.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient creates a rates client for the given endpoint URL.
func NewClient(httpClient *http.Client, url string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, url: url}
}

// Latest fetches the current rate table from the endpoint.
func (c *Client) Latest(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request: unexpected status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	if body.Base == "" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates response missing base or rates")
	}

	quote := &Quote{
		Date:  body.Date,
		Base:  strings.ToUpper(body.Base),
		Rates: make(map[string]float64, len(body.Rates)),
	}
	for code, raw := range body.Rates {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q for %s: %w", raw, code, err)
		}
		if rate <= 0 {
			return nil, fmt.Errorf("invalid rate %f for %s", rate, code)
		}
		quote.Rates[strings.ToUpper(code)] = rate
	}

	return quote, nil
}
