package quotes

import (
	"context"
	"sync"

	"github.com/NoBody0206/market-radar/internal/models"
)

// maxConcurrentFetches bounds the quote fan-out so large watchlists
// don't hammer the upstream.
const maxConcurrentFetches = 8

// FetchAll fetches quotes for all symbols concurrently. Symbols that fail
// to resolve are silently dropped; the returned map only contains usable
// quotes. This mirrors how the dashboard treats quote fetching: a missing
// price degrades the display, it never aborts it.
func FetchAll(ctx context.Context, provider Provider, symbols []string) map[string]models.Quote {
	results := make(map[string]models.Quote, len(symbols))
	if len(symbols) == 0 {
		return results
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxConcurrentFetches)
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			quote, err := provider.GetQuote(ctx, sym)
			if err != nil || quote == nil {
				return
			}

			mu.Lock()
			results[quote.Symbol] = *quote
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}
