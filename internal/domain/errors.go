package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrNotFound is returned by service adapters when the remote record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError lists every rejected field at once. No network call is made
// when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConfigurationError reports missing reference data or settings the pipeline needs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// AddressResolutionError is returned when an address could not be created or its
// generated id could not be recovered. Raw holds the create response, if any.
type AddressResolutionError struct {
	Raw   []byte
	Cause error
}

func (e *AddressResolutionError) Error() string {
	msg := "could not create address"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Raw) > 0 {
		msg += fmt.Sprintf(" (response: %.200s)", e.Raw)
	}
	return msg
}

func (e *AddressResolutionError) Unwrap() error { return e.Cause }

// CreationStep names the step of the incident creation workflow that failed.
type CreationStep string

const (
	StepAddress  CreationStep = "address"
	StepIncident CreationStep = "incident"
)

// IncidentCreationError wraps a failure of the two-step creation workflow.
// When Step is StepIncident the address already exists and OrphanedAddressID
// names it; it is not rolled back.
type IncidentCreationError struct {
	Step              CreationStep
	OrphanedAddressID int64
	Cause             error
}

func (e *IncidentCreationError) Error() string {
	switch {
	case e.Step == StepAddress:
		return fmt.Sprintf("create incident: address step failed: %v", e.Cause)
	case e.OrphanedAddressID == 0:
		return fmt.Sprintf("create incident: incident step failed: %v", e.Cause)
	default:
		return fmt.Sprintf("create incident: incident step failed (address %d left without incident): %v",
			e.OrphanedAddressID, e.Cause)
	}
}

func (e *IncidentCreationError) Unwrap() error { return e.Cause }

// InvalidArgumentError is a caller precondition violation, not a runtime failure.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}
