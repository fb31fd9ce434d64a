package models

import "errors"

var (
	// ErrQuotaExceeded is returned when a new ticker would exceed the daily cap.
	ErrQuotaExceeded = errors.New("daily ticker cap reached")
	// ErrTickerNotFound is returned when no registry entry matches the ticker or its variant.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrNoFacts is returned when the facts provider has nothing for a company.
	ErrNoFacts = errors.New("no financial facts available")
)
