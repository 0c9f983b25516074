package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Routing errors checkable with errors.Is().
var (
	// ErrNoEligibleModel is returned when no model satisfies the request's
	// constraints. Surfaced to the caller as a selection failure; never
	// retried internally.
	ErrNoEligibleModel = errors.New("no eligible model")

	// ErrUnknownStrategy is returned for an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown routing strategy")
)

// NoEligibleModelError reports which constraints emptied the candidate set.
type NoEligibleModelError struct {
	// Strategy is the strategy that failed.
	Strategy Strategy

	// Constraints describes the filters that were applied.
	Constraints []string
}

func (e *NoEligibleModelError) Error() string {
	if len(e.Constraints) == 0 {
		return fmt.Sprintf("no eligible model for strategy %q", e.Strategy)
	}
	return fmt.Sprintf("no eligible model for strategy %q (constraints: %s)",
		e.Strategy, strings.Join(e.Constraints, ", "))
}

func (e *NoEligibleModelError) Is(target error) bool {
	return target == ErrNoEligibleModel
}

// UnknownStrategyError reports an unrecognized strategy name.
type UnknownStrategyError struct {
	// Name is the rejected strategy name.
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown routing strategy %q (valid: cost, latency, capability, auto)", e.Name)
}

func (e *UnknownStrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}
