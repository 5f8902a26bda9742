package ledger

import (
	"context"
	"sort"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/internal/quotes"
)

// HoldingValue is one holding priced at the current market.
type HoldingValue struct {
	Symbol       string
	Quantity     int
	AveragePrice float64
	LastPrice    float64
	MarketValue  float64
	PnL          float64
	PnLPercent   float64
	Live         bool // false when the quote fetch failed and avg price was used
}

// Valuation is a point-in-time view of one segment's worth.
type Valuation struct {
	Segment     string
	Cash        float64
	MarketValue float64
	NetWorth    float64
	Holdings    []HoldingValue
}

// Valuation prices a segment's holdings with live quotes and returns cash,
// market value and net worth. A holding whose quote cannot be fetched is
// priced at its average acquisition cost; quote trouble degrades the view,
// it never fails it.
func (s *Service) Valuation(ctx context.Context, provider quotes.Provider, segment string) (Valuation, error) {
	port, err := s.Portfolio(segment)
	if err != nil {
		return Valuation{}, err
	}

	symbols := make([]string, 0, len(port.Holdings))
	for sym := range port.Holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var priced map[string]models.Quote
	if provider != nil && len(symbols) > 0 {
		priced = quotes.FetchAll(ctx, provider, symbols)
	}

	val := Valuation{Segment: segment, Cash: port.Cash}
	for _, sym := range symbols {
		pos := port.Holdings[sym]
		hv := HoldingValue{
			Symbol:       sym,
			Quantity:     pos.Quantity,
			AveragePrice: pos.AveragePrice,
			LastPrice:    pos.AveragePrice,
		}
		if q, ok := priced[sym]; ok && q.Price > 0 {
			hv.LastPrice = q.Price
			hv.Live = true
		}
		hv.MarketValue = hv.LastPrice * float64(pos.Quantity)
		invested := pos.AveragePrice * float64(pos.Quantity)
		hv.PnL = hv.MarketValue - invested
		if invested > 0 {
			hv.PnLPercent = hv.PnL / invested * 100
		}
		val.MarketValue += hv.MarketValue
		val.Holdings = append(val.Holdings, hv)
	}

	val.NetWorth = val.Cash + val.MarketValue
	return val, nil
}

// QuotedPrice resolves a tradable price for symbol, mapping provider
// failures and non-positive prices to ErrInvalidPrice so a failed quote
// fetch can never fall through into a trade.
func QuotedPrice(ctx context.Context, provider quotes.Provider, symbol string) (float64, error) {
	if provider == nil {
		return 0, apperrors.ErrInvalidPrice
	}
	quote, err := provider.GetQuote(ctx, symbol)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInvalidPrice, err.Error())
	}
	if quote == nil || quote.Price <= 0 {
		return 0, apperrors.ErrInvalidPrice
	}
	return quote.Price, nil
}
