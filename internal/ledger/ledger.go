// Package ledger implements the virtual trading portfolio ledger.
package ledger

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/logging"
	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/internal/store"
)

// DefaultFeeRate is the brokerage fee applied to both sides of every
// trade: 10 basis points of the gross trade value.
const DefaultFeeRate = 0.001

// Service is the authoritative owner of all portfolio and transaction
// state. It applies trade intents, enforces cash/holdings invariants, and
// persists through an injected store. All mutation is serialized behind a
// single mutex: the ledger is driven by one logical actor per session.
type Service struct {
	store   store.Store
	logger  zerolog.Logger
	feeRate float64
	seeds   map[string]models.SegmentSeed
	now     func() time.Time

	mu           sync.Mutex
	portfolios   map[string]models.Portfolio
	transactions []models.Transaction
}

// ServiceConfig holds configuration for the ledger service.
type ServiceConfig struct {
	Store    store.Store
	Segments map[string]models.SegmentSeed
	FeeRate  float64
	Logger   zerolog.Logger
	Now      func() time.Time // defaults to time.Now
}

// NewService creates a ledger service and loads persisted state. Segments
// present in the configuration but absent from the persisted document are
// seeded with their starting cash; a corrupt document falls back to the
// seeded defaults entirely.
func NewService(cfg ServiceConfig) (*Service, error) {
	feeRate := cfg.FeeRate
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		store:   cfg.Store,
		logger:  cfg.Logger,
		feeRate: feeRate,
		seeds:   cfg.Segments,
		now:     now,
	}

	portfolios := make(map[string]models.Portfolio)
	if err := s.store.Load(store.KeyPortfolios, &portfolios); err != nil {
		return nil, apperrors.Wrap(err, "loading portfolios")
	}
	for name, seed := range cfg.Segments {
		if _, ok := portfolios[name]; !ok {
			portfolios[name] = models.Portfolio{Cash: seed.Cash, Holdings: map[string]models.Position{}}
		}
	}
	for name, port := range portfolios {
		portfolios[name] = sanitize(port, s.logger, name)
	}
	s.portfolios = portfolios

	transactions := []models.Transaction{}
	if err := s.store.Load(store.KeyTransactions, &transactions); err != nil {
		return nil, apperrors.Wrap(err, "loading transactions")
	}
	s.transactions = transactions

	return s, nil
}

// sanitize restores structural invariants on a loaded portfolio: the
// holdings map exists and no position carries a non-positive quantity.
func sanitize(port models.Portfolio, logger zerolog.Logger, segment string) models.Portfolio {
	if port.Holdings == nil {
		port.Holdings = map[string]models.Position{}
	}
	for sym, pos := range port.Holdings {
		if pos.Quantity <= 0 {
			logger.Warn().
				Str("segment", segment).
				Str("symbol", sym).
				Int("quantity", pos.Quantity).
				Msg("Dropping holding with non-positive quantity")
			delete(port.Holdings, sym)
		}
	}
	return port
}

// ExecuteTrade validates and applies a trade intent against one segment's
// portfolio. It is all-or-nothing: a rejected trade leaves both in-memory
// and persisted state untouched, and memory is only swapped after the
// updated documents have hit the store.
func (s *Service) ExecuteTrade(segment string, side models.Side, symbol string, qty int, price float64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	port, ok := s.portfolios[segment]
	if !ok {
		return models.Transaction{}, s.reject(segment, side, symbol, qty, "no such segment", apperrors.ErrUnknownSegment)
	}
	if !side.Valid() {
		return models.Transaction{}, s.reject(segment, side, symbol, qty, "side must be BUY or SELL", apperrors.ErrInvalidSide)
	}
	if qty <= 0 {
		return models.Transaction{}, s.reject(segment, side, symbol, qty, "quantity must be a positive integer", apperrors.ErrInvalidQuantity)
	}
	if symbol == "" || price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.Transaction{}, s.reject(segment, side, symbol, qty, "missing or non-positive price", apperrors.ErrInvalidPrice)
	}

	gross := price * float64(qty)
	fee := gross * s.feeRate

	next := port.Clone()

	switch side {
	case models.SideBuy:
		totalCost := gross + fee
		if totalCost > next.Cash {
			return models.Transaction{}, s.reject(segment, side, symbol, qty, "cost exceeds available cash", apperrors.ErrInsufficientFunds)
		}
		next.Cash -= totalCost
		if pos, held := next.Holdings[symbol]; held {
			newQty := pos.Quantity + qty
			// The fee-inclusive total cost is blended into the average, so
			// the cost basis embeds historical fee drag. Existing documents
			// were produced with exactly this formula.
			next.Holdings[symbol] = models.Position{
				Quantity:     newQty,
				AveragePrice: (float64(pos.Quantity)*pos.AveragePrice + totalCost) / float64(newQty),
			}
		} else {
			next.Holdings[symbol] = models.Position{
				Quantity:     qty,
				AveragePrice: totalCost / float64(qty),
			}
		}

	case models.SideSell:
		pos, held := next.Holdings[symbol]
		if !held || pos.Quantity < qty {
			return models.Transaction{}, s.reject(segment, side, symbol, qty, "not enough shares held", apperrors.ErrInsufficientShares)
		}
		next.Cash += gross - fee
		pos.Quantity -= qty
		if pos.Quantity == 0 {
			delete(next.Holdings, symbol)
		} else {
			// Average price is untouched by sells: the cost basis only
			// moves on acquisition.
			next.Holdings[symbol] = pos
		}
	}

	txn := models.NewTransaction(s.now(), side, symbol, qty, price, fee)
	if err := s.persist(segment, next, txn); err != nil {
		return models.Transaction{}, err
	}

	s.portfolios[segment] = next
	s.transactions = append([]models.Transaction{txn}, s.transactions...)

	logging.LogTrade(s.logger, segment, string(side), symbol, qty, price, fee)
	return txn, nil
}

// persist writes the updated portfolio document and the transaction log.
// If the log write fails after the portfolio write succeeded, the prior
// portfolio document is restored so the two documents stay consistent.
func (s *Service) persist(segment string, next models.Portfolio, txn models.Transaction) error {
	prior := s.portfolioDoc()

	updated := make(map[string]models.Portfolio, len(s.portfolios))
	for name, p := range s.portfolios {
		updated[name] = p
	}
	updated[segment] = next

	if err := s.store.Save(store.KeyPortfolios, updated); err != nil {
		return apperrors.Wrap(err, "persisting portfolios")
	}

	log := append([]models.Transaction{txn}, s.transactions...)
	if err := s.store.Save(store.KeyTransactions, log); err != nil {
		if restoreErr := s.store.Save(store.KeyPortfolios, prior); restoreErr != nil {
			s.logger.Error().Err(restoreErr).Msg("Failed to restore portfolio document after log write failure")
		}
		return apperrors.Wrap(err, "persisting transaction log")
	}
	return nil
}

func (s *Service) portfolioDoc() map[string]models.Portfolio {
	doc := make(map[string]models.Portfolio, len(s.portfolios))
	for name, p := range s.portfolios {
		doc[name] = p
	}
	return doc
}

func (s *Service) reject(segment string, side models.Side, symbol string, qty int, reason string, sentinel error) error {
	logging.LogRejectedTrade(s.logger, segment, string(side), symbol, qty, reason)
	return apperrors.NewTradeError(segment, string(side), symbol, reason, sentinel)
}

// Portfolio returns a snapshot copy of one segment's portfolio.
func (s *Service) Portfolio(segment string) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	port, ok := s.portfolios[segment]
	if !ok {
		return models.Portfolio{}, apperrors.ErrUnknownSegment
	}
	return port.Clone(), nil
}

// Segments returns the known segment names in sorted order.
func (s *Service) Segments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.portfolios))
	for name := range s.portfolios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seed returns the configured seed for a segment, if any.
func (s *Service) Seed(segment string) (models.SegmentSeed, bool) {
	seed, ok := s.seeds[segment]
	return seed, ok
}

// Transactions returns up to limit transaction records, newest first.
// A non-positive limit returns the whole log.
func (s *Service) Transactions(limit int) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Transaction, n)
	copy(out, s.transactions[:n])
	return out
}

// Reset re-seeds a segment to its configured starting cash and clears its
// holdings. The transaction log is preserved as the audit trail.
func (s *Service) Reset(segment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[segment]; !ok {
		return apperrors.ErrUnknownSegment
	}
	seed, ok := s.seeds[segment]
	if !ok {
		return apperrors.ErrUnknownSegment
	}

	next := models.Portfolio{Cash: seed.Cash, Holdings: map[string]models.Position{}}

	updated := s.portfolioDoc()
	updated[segment] = next
	if err := s.store.Save(store.KeyPortfolios, updated); err != nil {
		return apperrors.Wrap(err, "persisting portfolios")
	}

	s.portfolios[segment] = next
	log := logging.WithSegment(s.logger, segment)
	log.Info().Float64("cash", seed.Cash).Msg("Segment reset")
	return nil
}
