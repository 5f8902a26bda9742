// Package store provides data persistence interfaces and implementations.
package store

// Well-known document keys. They mirror the file names used by earlier
// releases (trading_engine.json, transactions.json, watchlist_data.json),
// so existing data directories keep working.
const (
	KeyPortfolios   = "trading_engine"
	KeyTransactions = "transactions"
	KeyWatchlist    = "watchlist_data"
)

// Store is a dumb whole-document persistence surface. It carries no
// business logic: documents go in and come out as opaque JSON-serializable
// values.
//
// Load fills out with the document stored under key. If no document exists,
// or the stored content cannot be parsed, out is left untouched and Load
// returns nil: the caller pre-populates out with its default, and a corrupt
// document must never surface as an error.
//
// Save serializes doc and fully replaces any prior content under key.
// Saves are atomic per key but there is no cross-key transaction; callers
// that need multi-document consistency must be the only writer (the ledger
// service serializes all its writes).
type Store interface {
	Load(key string, out interface{}) error
	Save(key string, doc interface{}) error
	Close() error
}
