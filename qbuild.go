// Package qbuild builds MySQL SELECT statements with a fluent API and runs
// them through database/sql.
//
// Identifiers are quoted with backticks, values are bound to positional "?"
// placeholders, and clauses are always emitted in SQL order no matter the
// order of the builder calls:
//
//	sql, args, err := qbuild.NewBuilder().
//	    Select("users.id", "users.name").
//	    From("users").
//	    Where("users.age", ">", 18).
//	    OrderBy("users.name").
//	    ToSQL()
//	// SELECT `users`.`id`, `users`.`name` FROM `users` WHERE (`users`.`age` > ?) ORDER BY `users`.`name`
//	// [18]
package qbuild

import (
	"github.com/coregx/qbuild/internal/command"
	"github.com/coregx/qbuild/internal/config"
	"github.com/coregx/qbuild/internal/core"
	"github.com/coregx/qbuild/internal/exec"
	"github.com/coregx/qbuild/internal/logger"
	"github.com/coregx/qbuild/internal/operand"
	"github.com/coregx/qbuild/internal/security"
	"github.com/coregx/qbuild/internal/tracer"
)

type (
	// Builder creates queries sharing logging configuration.
	Builder = core.Builder
	// BuilderOption configures a Builder.
	BuilderOption = core.Option
	// Query is a SELECT under construction.
	Query = core.Query
	// Statement is serialized SQL with its bindings.
	Statement = core.Statement

	// Cond is a condition group for WhereGroup, HavingCond and join conditions.
	Cond = command.Cond
	// JoinCond is the ON condition of a join.
	JoinCond = command.JoinCond
	// JoinType selects INNER, LEFT or RIGHT.
	JoinType = command.JoinType
	// GroupType attaches a condition group with WHERE, AND or OR.
	GroupType = command.GroupType
	// ClauseError reports the clause and input that failed validation.
	ClauseError = command.ClauseError

	// Operand is an explicitly tagged column, value or list.
	Operand = operand.Operand

	// Runner executes statements.
	Runner = exec.Runner
	// RunnerOption configures a Runner.
	RunnerOption = exec.Option
	// Config holds runner settings.
	Config = config.Config

	// Logger is the structured logger interface.
	Logger = logger.Logger
	// Tracer starts tracing spans.
	Tracer = tracer.Tracer
)

// Join and group types.
const (
	JoinInner = command.JoinInner
	JoinLeft  = command.JoinLeft
	JoinRight = command.JoinRight

	GroupWhere = command.GroupWhere
	GroupAnd   = command.GroupAnd
	GroupOr    = command.GroupOr
)

// Errors.
var (
	ErrInvalidReference = command.ErrInvalidReference
	ErrInvalidBinding   = command.ErrInvalidBinding
	ErrInvalidOperator  = command.ErrInvalidOperator
	ErrInvalidJoinType  = command.ErrInvalidJoinType
	ErrInvalidGroupType = command.ErrInvalidGroupType
	ErrInvalidDirection = command.ErrInvalidDirection
	ErrInvalidLimit     = command.ErrInvalidLimit
	ErrUnsafeQuery      = exec.ErrUnsafeQuery
)

// Builder construction.
var (
	NewBuilder    = core.NewBuilder
	WithLogger    = core.WithLogger
	WithSanitizer = core.WithSanitizer
)

// Conditions and operands.
var (
	NewCond        = command.NewCond
	NewInCond      = command.NewInCond
	NewNotInCond   = command.NewNotInCond
	NewNullCond    = command.NewNullCond
	NewNotNullCond = command.NewNotNullCond
	On             = command.On

	Col  = operand.Col
	Val  = operand.Val
	List = operand.List
)

// Execution.
var (
	Open          = exec.Open
	NewRunner     = exec.New
	LoadConfig    = config.LoadFile
	NewSlogLogger = logger.NewSlogAdapter
	NewSanitizer  = logger.NewSanitizer
	NewValidator  = security.NewValidator
	NewAuditor    = security.NewAuditor
	OtelTracer    = tracer.FromProvider
)
