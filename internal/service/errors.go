package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ConfigurationError rejects a state change whose required associations or
// dates are missing (e.g. marking a container unloaded without a warehouse).
// Fatal at the boundary; the missing-field list is surfaced to the caller.
type ConfigurationError struct {
	Op      string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Op, strings.Join(e.Missing, ", "))
}

// InsufficientFundsError rejects a non-corrective transfer exceeding the
// sender's bucket balance. No partial mutation happens.
type InsufficientFundsError struct {
	Bucket    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, requested %s",
		e.Bucket, e.Available.String(), e.Requested.String())
}

// StaleReferenceError marks an assignment pointing at a deleted catalog
// entry. Aggregation logs it and skips the assignment instead of failing.
type StaleReferenceError struct {
	AssignmentID string
	EntryID      string
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("service not found: assignment %s references missing catalog entry %s",
		e.AssignmentID, e.EntryID)
}

// RecomputeError wraps any failure inside the cascading recompute so callers
// can distinguish it from boundary validation failures.
type RecomputeError struct {
	Entity string
	ID     string
	Err    error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("recompute %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *RecomputeError) Unwrap() error { return e.Err }
