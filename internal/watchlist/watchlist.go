// Package watchlist manages per-segment symbol watchlists.
package watchlist

import (
	"errors"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/store"
)

// ErrEmptySymbol is returned when an empty symbol is added.
var ErrEmptySymbol = errors.New("empty symbol")

// Service owns the persisted watchlists. Each segment keeps an ordered,
// de-duplicated list of uppercase symbols.
type Service struct {
	store store.Store

	mu    sync.Mutex
	lists map[string][]string
}

// NewService creates a watchlist service, loading persisted lists. Every
// segment in segments gets a list even if nothing was persisted for it.
func NewService(st store.Store, segments []string) (*Service, error) {
	lists := make(map[string][]string)
	if err := st.Load(store.KeyWatchlist, &lists); err != nil {
		return nil, apperrors.Wrap(err, "loading watchlist")
	}
	for _, seg := range segments {
		if _, ok := lists[seg]; !ok {
			lists[seg] = []string{}
		}
	}
	return &Service{store: st, lists: lists}, nil
}

// Symbols returns the watchlist for a segment.
func (s *Service) Symbols(segment string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[segment]
	if !ok {
		return nil, apperrors.ErrUnknownSegment
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// Segments returns the segment names with a watchlist, sorted.
func (s *Service) Segments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.lists))
	for name := range s.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add appends a symbol to a segment's watchlist. Adding an already
// watched symbol is a no-op.
func (s *Service) Add(segment, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ErrEmptySymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[segment]
	if !ok {
		return apperrors.ErrUnknownSegment
	}
	for _, sym := range list {
		if sym == symbol {
			return nil
		}
	}

	next := append(append([]string{}, list...), symbol)
	if err := s.save(segment, next); err != nil {
		return err
	}
	s.lists[segment] = next
	return nil
}

// Remove deletes a symbol from a segment's watchlist.
func (s *Service) Remove(segment, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[segment]
	if !ok {
		return apperrors.ErrUnknownSegment
	}

	next := make([]string, 0, len(list))
	for _, sym := range list {
		if sym != symbol {
			next = append(next, sym)
		}
	}
	if len(next) == len(list) {
		return nil
	}

	if err := s.save(segment, next); err != nil {
		return err
	}
	s.lists[segment] = next
	return nil
}

// save persists the full watchlist document with one segment's list
// replaced, leaving memory untouched if the write fails.
func (s *Service) save(segment string, list []string) error {
	doc := make(map[string][]string, len(s.lists))
	for name, l := range s.lists {
		doc[name] = l
	}
	doc[segment] = list
	return s.store.Save(store.KeyWatchlist, doc)
}
