// Package models defines the domain types shared across the application.
package models

import "time"

// TradeDateFormat is the timestamp layout used in the transaction log.
// It matches the layout of previously persisted logs, so it must not change.
const TradeDateFormat = "2006-01-02 15:04"

// Side represents the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Position represents a held quantity of one symbol.
//
// AveragePrice is the volume-weighted acquisition cost per share including
// fees paid on acquisition. It is only recomputed on buys; sells never move
// the cost basis.
type Position struct {
	Quantity     int     `json:"qty"`
	AveragePrice float64 `json:"avg_price"`
}

// Portfolio holds the cash balance and open positions of one market segment.
type Portfolio struct {
	Cash     float64             `json:"cash"`
	Holdings map[string]Position `json:"holdings"`
}

// Clone returns a deep copy of the portfolio.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{Cash: p.Cash, Holdings: make(map[string]Position, len(p.Holdings))}
	for sym, pos := range p.Holdings {
		out.Holdings[sym] = pos
	}
	return out
}

// InvestedValue returns the total acquisition cost of all open positions.
func (p Portfolio) InvestedValue() float64 {
	total := 0.0
	for _, pos := range p.Holdings {
		total += float64(pos.Quantity) * pos.AveragePrice
	}
	return total
}

// Transaction is an immutable record of one executed trade.
// The JSON shape matches the persisted transaction log of earlier releases.
type Transaction struct {
	Date   string  `json:"date"`
	Type   Side    `json:"type"`
	Symbol string  `json:"symbol"`
	Qty    int     `json:"qty"`
	Price  float64 `json:"price"`
	Fee    float64 `json:"fee"`
}

// NewTransaction builds a transaction record stamped with the given time.
func NewTransaction(at time.Time, side Side, symbol string, qty int, price, fee float64) Transaction {
	return Transaction{
		Date:   at.Format(TradeDateFormat),
		Type:   side,
		Symbol: symbol,
		Qty:    qty,
		Price:  price,
		Fee:    fee,
	}
}

// Quote represents a current tradable price for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	History       []float64 `json:"hist,omitempty"`
	AsOf          time.Time `json:"as_of"`
}

// SegmentSeed describes the initial state of one market segment.
type SegmentSeed struct {
	Cash     float64
	Currency string // display symbol, e.g. "₹" or "$"
}
