package command

import (
	"errors"
	"fmt"

	"github.com/coregx/qbuild/internal/operand"
	"github.com/coregx/qbuild/internal/reference"
)

// Errors raised while building clause commands.
var (
	// ErrInvalidReference is returned when an identifier cannot be resolved.
	ErrInvalidReference = reference.ErrInvalidReference
	// ErrInvalidBinding is returned for values that cannot be bound to a placeholder.
	ErrInvalidBinding = operand.ErrInvalidBinding
	// ErrInvalidOperator is returned for operators outside the allow-list.
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrInvalidJoinType is returned for join types other than inner, left and right.
	ErrInvalidJoinType = errors.New("invalid join type")
	// ErrInvalidGroupType is returned for group types other than where, and and or.
	ErrInvalidGroupType = errors.New("invalid group type")
	// ErrInvalidDirection is returned for ORDER BY directions other than ASC and DESC.
	ErrInvalidDirection = errors.New("invalid order direction")
	// ErrInvalidLimit is returned for negative LIMIT or OFFSET values.
	ErrInvalidLimit = errors.New("invalid limit")
)

// ClauseError records which clause rejected which input.
type ClauseError struct {
	Clause string
	Input  string
	Err    error
}

func (e *ClauseError) Error() string {
	if e.Input == "" {
		return e.Clause + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s: %v (%q)", e.Clause, e.Err, e.Input)
}

func (e *ClauseError) Unwrap() error {
	return e.Err
}

func clauseError(clause string, input any, err error) error {
	var ce *ClauseError
	if errors.As(err, &ce) {
		return err
	}
	in := ""
	if input != nil {
		in = fmt.Sprint(input)
	}
	return &ClauseError{Clause: clause, Input: in, Err: err}
}
