// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUnknownSegment     = errors.New("unknown market segment")
	ErrInvalidSide        = errors.New("invalid trade side")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrQuoteNotFound      = errors.New("quote not found")
	ErrStoreLocked        = errors.New("data directory locked by another process")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// TradeError represents a rejected trade. It wraps one of the trade
// sentinel errors so callers can branch with errors.Is while still
// getting a fully qualified message.
type TradeError struct {
	Segment string
	Side    string
	Symbol  string
	Reason  string
	Err     error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("trade rejected [%s %s %s]: %s", e.Segment, e.Side, e.Symbol, e.Reason)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(segment, side, symbol, reason string, err error) *TradeError {
	return &TradeError{
		Segment: segment,
		Side:    side,
		Symbol:  symbol,
		Reason:  reason,
		Err:     err,
	}
}

// StoreError represents a persistence failure.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s %s]: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
