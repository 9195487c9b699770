package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/countryrates/country-service/pkg/logger"
	"github.com/countryrates/country-service/pkg/metrics"
	"go.uber.org/zap"
)

const (
	SourceCountries = "countries"
	SourceRates     = "exchange_rates"
)

// Client pulls the two upstream datasets. Every failure degrades to an
// empty result for that source; callers never see an error.
type Client struct {
	countriesURL string
	exchangeURL  string
	client       *http.Client
}

func New(countriesURL, exchangeURL string, timeout time.Duration) *Client {
	return &Client{
		countriesURL: countriesURL,
		exchangeURL:  exchangeURL,
		client:       &http.Client{Timeout: timeout},
	}
}

// FetchCountries returns the raw country entries, or nil on any failure.
func (c *Client) FetchCountries(ctx context.Context) []json.RawMessage {
	body, err := c.get(ctx, c.countriesURL)
	if err != nil {
		fail(SourceCountries, err)
		return nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil {
		fail(SourceCountries, fmt.Errorf("decode: %w", err))
		return nil
	}
	logger.L().Debug("fetched countries", zap.Int("count", len(out)))
	return out
}

// FetchRates returns the USD rate mapping keyed by uppercase currency code,
// or an empty map on any failure. Null and non-numeric rate entries are
// dropped, so countries using them merge as rate-less stubs.
func (c *Client) FetchRates(ctx context.Context) map[string]float64 {
	rates := map[string]float64{}
	body, err := c.get(ctx, c.exchangeURL)
	if err != nil {
		fail(SourceRates, err)
		return rates
	}
	var payload struct {
		Rates map[string]json.RawMessage `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		fail(SourceRates, fmt.Errorf("decode: %w", err))
		return rates
	}
	for code, raw := range payload.Rates {
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.L().Warn("ignoring non-numeric rate", zap.String("currency", code))
			continue
		}
		if v == nil {
			logger.L().Debug("ignoring null rate", zap.String("currency", code))
			continue
		}
		rates[strings.ToUpper(code)] = *v
	}
	logger.L().Debug("fetched exchange rates", zap.Int("count", len(rates)))
	return rates
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func fail(source string, err error) {
	metrics.UpstreamFailures.WithLabelValues(source).Inc()
	logger.L().Error("upstream fetch failed", zap.String("source", source), zap.Error(err))
}
