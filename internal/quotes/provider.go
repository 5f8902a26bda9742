// Package quotes provides market quote providers.
package quotes

import (
	"context"
	"strings"
	"sync"

	"github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/models"
)

// Provider supplies a current tradable price for a symbol. Implementations
// return errors.ErrQuoteNotFound when the upstream has no usable price;
// callers decide whether that declines a trade or just degrades a display.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Static is a map-backed provider for tests and offline use.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStatic creates a provider serving fixed prices.
func NewStatic(prices map[string]float64) *Static {
	cp := make(map[string]float64, len(prices))
	for sym, price := range prices {
		cp[strings.ToUpper(sym)] = price
	}
	return &Static{prices: cp}
}

// SetPrice sets or replaces the price for a symbol.
func (s *Static) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[strings.ToUpper(symbol)] = price
}

// GetQuote returns the fixed price for symbol.
func (s *Static) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[strings.ToUpper(symbol)]
	if !ok || price <= 0 {
		return nil, errors.ErrQuoteNotFound
	}
	return &models.Quote{Symbol: strings.ToUpper(symbol), Price: price}, nil
}

// Ensure Static implements Provider
var _ Provider = (*Static)(nil)
