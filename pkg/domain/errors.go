package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedInstruction is returned when an instruction has no semantics.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")

	// ErrStackUnderflow is returned when an operation addresses a position
	// beyond the visible items of a stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrStepLimit is returned when a valve reaches its step bound before the
	// frontier is exhausted.
	ErrStepLimit = errors.New("step limit reached")

	// ErrInvalidGraph is returned when a graph fails structural validation.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrReportNotFound is returned when a report ID cannot be found in the store.
	ErrReportNotFound = errors.New("report not found")

	// ErrContractNotFound is returned when a contract ID cannot be resolved by a loader.
	ErrContractNotFound = errors.New("contract not found")
)

// UnsupportedInstructionError names the instruction the dispatch table lacks.
type UnsupportedInstructionError struct {
	Name string
}

func (e *UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedInstruction, e.Name)
}

func (e *UnsupportedInstructionError) Unwrap() error {
	return ErrUnsupportedInstruction
}

// StackUnderflowError reports the requested position and the number of
// visible items at the time of the request.
type StackUnderflowError struct {
	Index int
	Depth int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("%s: index %d, depth %d", ErrStackUnderflow, e.Index, e.Depth)
}

func (e *StackUnderflowError) Unwrap() error {
	return ErrStackUnderflow
}
