package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/models"
)

const yahooChartURL = "https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=5d"

// YahooProvider fetches quotes from the Yahoo Finance v8 chart API.
// Responses are cached for a short TTL; upstream failures and non-positive
// prices are reported as ErrQuoteNotFound rather than propagated raw.
type YahooProvider struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]cachedQuote
}

type cachedQuote struct {
	quote   models.Quote
	fetched time.Time
}

// YahooConfig holds configuration for the Yahoo provider.
type YahooConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NewYahooProvider creates a new Yahoo Finance quote provider.
func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}

	return &YahooProvider{
		cli:     &http.Client{Timeout: timeout},
		baseURL: yahooChartURL,
		ttl:     ttl,
		cache:   make(map[string]cachedQuote),
	}
}

// GetQuote fetches the current quote for symbol.
func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.ErrQuoteNotFound
	}

	p.mu.RLock()
	if c, ok := p.cache[symbol]; ok && time.Since(c.fetched) < p.ttl {
		p.mu.RUnlock()
		q := c.quote
		return &q, nil
	}
	p.mu.RUnlock()

	quote, err := p.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[symbol] = cachedQuote{quote: *quote, fetched: time.Now()}
	p.mu.Unlock()

	return quote, nil
}

func (p *YahooProvider) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	reqURL := fmt.Sprintf(p.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "market-radar/1.0")

	resp, err := p.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.ErrQuoteNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					RegularMarketTime  int64   `json:"regularMarketTime"`
				} `json:"meta"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
						High  []float64 `json:"high"`
						Low   []float64 `json:"low"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error interface{} `json:"error"`
		} `json:"chart"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, errors.ErrQuoteNotFound
	}

	result := raw.Chart.Result[0]
	price := result.Meta.RegularMarketPrice

	// Close series for change computation and sparkline history.
	var closes, highs, lows []float64
	if len(result.Indicators.Quote) > 0 {
		closes = compact(result.Indicators.Quote[0].Close)
		highs = compact(result.Indicators.Quote[0].High)
		lows = compact(result.Indicators.Quote[0].Low)
	}

	if price <= 0 && len(closes) > 0 {
		price = closes[len(closes)-1]
	}
	if price <= 0 {
		return nil, errors.ErrQuoteNotFound
	}

	quote := &models.Quote{
		Symbol:  symbol,
		Price:   price,
		History: closes,
		AsOf:    time.Unix(result.Meta.RegularMarketTime, 0),
	}
	if len(closes) > 1 {
		prev := closes[len(closes)-2]
		if prev > 0 {
			quote.ChangePercent = (price - prev) / prev * 100
		}
	}
	if len(highs) > 0 {
		quote.High = highs[len(highs)-1]
	}
	if len(lows) > 0 {
		quote.Low = lows[len(lows)-1]
	}
	return quote, nil
}

// compact drops zero entries, which Yahoo emits for holidays and gaps.
func compact(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Ensure YahooProvider implements Provider
var _ Provider = (*YahooProvider)(nil)
