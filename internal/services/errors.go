package services

import "errors"

// Engine-level validation failures. These are detected locally, before any
// network call, and never change local state.
var (
	ErrInvalidTransition = errors.New("invalid route transition")
	ErrUnknownStop       = errors.New("unknown stop")
	ErrAlreadyCompleted  = errors.New("stop already completed")

	ErrNoOrders            = errors.New("no orders selected")
	ErrNoCandidate         = errors.New("no optimization candidate")
	ErrInfeasibleCandidate = errors.New("optimization candidate is not feasible")
	ErrOptimizationBusy    = errors.New("optimization request already in flight")
)
