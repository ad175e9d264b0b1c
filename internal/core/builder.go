// Package core provides the fluent query builder and the serializer that turns
// an assembled query into SQL text with positional bindings.
package core

import (
	"github.com/coregx/qbuild/internal/command"
	"github.com/coregx/qbuild/internal/logger"
)

// Builder creates queries that share logging configuration.
type Builder struct {
	logger    logger.Logger
	sanitizer *logger.Sanitizer
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSanitizer sets the sanitizer masking bindings in log lines.
func WithSanitizer(s *logger.Sanitizer) Option {
	return func(b *Builder) {
		if s != nil {
			b.sanitizer = s
		}
	}
}

// NewBuilder returns a Builder. Without options it logs nothing.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:    &logger.NoopLogger{},
		sanitizer: logger.NewSanitizer(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New starts an empty query.
func (b *Builder) New() *Query {
	return &Query{builder: b}
}

// Select starts a query with a projection, see Query.Select.
func (b *Builder) Select(cols ...string) *Query {
	return b.New().Select(cols...)
}

// SelectDistinct starts a query with a DISTINCT projection.
func (b *Builder) SelectDistinct(cols ...string) *Query {
	return b.New().SelectDistinct(cols...)
}

// SelectMap starts a query with a reference -> alias projection.
func (b *Builder) SelectMap(cols map[string]string) *Query {
	return b.New().SelectMap(cols)
}

// From starts a query selecting everything from table.
func (b *Builder) From(table string) *Query {
	return b.New().From(table)
}

// Query is a SELECT under construction. Every method appends one command
// and returns the same query. The first invalid call records its error;
// later calls are ignored and Build returns that error. Commands added before
// the failure are kept.
//
// A Query is not safe for concurrent use.
type Query struct {
	builder  *Builder
	commands []command.Command
	err      error
}

// Err returns the first error recorded while building the query.
func (q *Query) Err() error {
	return q.err
}

// Commands returns the assembled commands in call order.
func (q *Query) Commands() []command.Command {
	return q.commands
}

func (q *Query) add(cmd command.Command, err error) *Query {
	if q.err != nil {
		return q
	}
	if err != nil {
		q.err = err
		q.builder.logger.Warn("invalid clause", "error", err)
		return q
	}
	q.commands = append(q.commands, cmd)
	return q
}

// Select adds projection entries. No entries, "*" or empty entries select
// everything; entries may be comma-separated lists and use "<ref> AS <alias>".
//
//	Select("user.id AS user_id, order.id AS order_id")
func (q *Query) Select(cols ...string) *Query {
	return q.add(command.NewSelect(false, cols...))
}

// SelectDistinct is Select with SELECT DISTINCT.
func (q *Query) SelectDistinct(cols ...string) *Query {
	return q.add(command.NewSelect(true, cols...))
}

// SelectMap adds reference -> alias entries; an empty alias means none.
func (q *Query) SelectMap(cols map[string]string) *Query {
	return q.add(command.NewSelectMap(false, cols))
}

// From adds a source table: "[database.]table[ [AS] alias]".
func (q *Query) From(table string) *Query {
	return q.add(command.NewFrom(table))
}

// Join adds an INNER JOIN comparing two columns.
//
//	From("orders").Join("users", "orders.user_id", "=", "users.id")
func (q *Query) Join(table, first, operator, second string) *Query {
	return q.JoinWith(command.JoinInner, table, command.On(first, operator, second))
}

// JoinWith adds a join of the given kind. on may be nil.
func (q *Query) JoinWith(kind command.JoinType, table string, on *command.JoinCond) *Query {
	return q.add(command.NewJoin(kind, table, on))
}

// InnerJoin adds an INNER JOIN.
func (q *Query) InnerJoin(table string, on *command.JoinCond) *Query {
	return q.JoinWith(command.JoinInner, table, on)
}

// LeftJoin adds a LEFT JOIN.
func (q *Query) LeftJoin(table string, on *command.JoinCond) *Query {
	return q.JoinWith(command.JoinLeft, table, on)
}

// RightJoin adds a RIGHT JOIN.
func (q *Query) RightJoin(table string, on *command.JoinCond) *Query {
	return q.JoinWith(command.JoinRight, table, on)
}

// WhereCond adds c as one parenthesized group attached by group.
func (q *Query) WhereCond(group command.GroupType, c *command.Cond) *Query {
	return q.add(command.NewWhere(group, c))
}

// Where adds the group "(<op1> <operator> <op2>)". op1 is a column; op2 is
// a column when it looks like one (user.id, `id`) and a bound value otherwise.
func (q *Query) Where(op1 any, operator string, op2 any) *Query {
	return q.WhereCond(command.GroupWhere, command.NewCond(op1, operator, op2))
}

// AndWhere adds a group attached with AND.
func (q *Query) AndWhere(op1 any, operator string, op2 any) *Query {
	return q.WhereCond(command.GroupAnd, command.NewCond(op1, operator, op2))
}

// OrWhere adds a group attached with OR.
func (q *Query) OrWhere(op1 any, operator string, op2 any) *Query {
	return q.WhereCond(command.GroupOr, command.NewCond(op1, operator, op2))
}

// WhereGroup adds a nested condition group attached with AND.
//
//	WhereGroup(NewCond("name", "=", "David").And("age", ">", 21))
//	    -> WHERE (`name` = ? AND `age` > ?)
func (q *Query) WhereGroup(c *command.Cond) *Query {
	return q.WhereCond(command.GroupWhere, c)
}

// OrWhereGroup adds a nested condition group attached with OR.
func (q *Query) OrWhereGroup(c *command.Cond) *Query {
	return q.WhereCond(command.GroupOr, c)
}

// WhereIn adds "(<col> IN (...))". A single slice argument is expanded.
func (q *Query) WhereIn(col any, values ...any) *Query {
	return q.WhereCond(command.GroupWhere, command.NewInCond(col, values...))
}

// AndWhereIn is WhereIn attached with AND.
func (q *Query) AndWhereIn(col any, values ...any) *Query {
	return q.WhereCond(command.GroupAnd, command.NewInCond(col, values...))
}

// OrWhereIn is WhereIn attached with OR.
func (q *Query) OrWhereIn(col any, values ...any) *Query {
	return q.WhereCond(command.GroupOr, command.NewInCond(col, values...))
}

// WhereNotIn adds "(<col> NOT IN (...))".
func (q *Query) WhereNotIn(col any, values ...any) *Query {
	return q.WhereCond(command.GroupWhere, command.NewNotInCond(col, values...))
}

// OrWhereNotIn is WhereNotIn attached with OR.
func (q *Query) OrWhereNotIn(col any, values ...any) *Query {
	return q.WhereCond(command.GroupOr, command.NewNotInCond(col, values...))
}

// WhereNull adds "(<col> IS NULL)".
func (q *Query) WhereNull(col any) *Query {
	return q.WhereCond(command.GroupWhere, command.NewNullCond(col))
}

// OrWhereNull is WhereNull attached with OR.
func (q *Query) OrWhereNull(col any) *Query {
	return q.WhereCond(command.GroupOr, command.NewNullCond(col))
}

// WhereNotNull adds "(<col> IS NOT NULL)".
func (q *Query) WhereNotNull(col any) *Query {
	return q.WhereCond(command.GroupWhere, command.NewNotNullCond(col))
}

// OrWhereNotNull is WhereNotNull attached with OR.
func (q *Query) OrWhereNotNull(col any) *Query {
	return q.WhereCond(command.GroupOr, command.NewNotNullCond(col))
}

// WhereID adds "(<idKey> = ?)" bound to id. An empty idKey means "id" and an
// empty group means GroupWhere.
func (q *Query) WhereID(id any, idKey string, group command.GroupType) *Query {
	if idKey == "" {
		idKey = "id"
	}
	if group == "" {
		group = command.GroupWhere
	}
	return q.WhereCond(group, command.NewCond(idKey, "=", id))
}

// GroupBy adds GROUP BY columns.
func (q *Query) GroupBy(cols ...string) *Query {
	return q.add(command.NewGroupBy(cols...))
}

// Having adds a HAVING group; the left side may be an aggregate such as COUNT(id).
func (q *Query) Having(op1 any, operator string, op2 any) *Query {
	return q.HavingCond(command.GroupWhere, command.NewCond(op1, operator, op2))
}

// OrHaving adds a HAVING group attached with OR.
func (q *Query) OrHaving(op1 any, operator string, op2 any) *Query {
	return q.HavingCond(command.GroupOr, command.NewCond(op1, operator, op2))
}

// HavingCond adds c as a HAVING group attached by group.
func (q *Query) HavingCond(group command.GroupType, c *command.Cond) *Query {
	return q.add(command.NewHaving(group, c))
}

// OrderBy adds ORDER BY entries such as "created_at DESC".
func (q *Query) OrderBy(cols ...string) *Query {
	return q.add(command.NewOrderBy(cols...))
}

// Limit sets LIMIT; the last call wins.
func (q *Query) Limit(n int) *Query {
	return q.add(command.NewLimit(n))
}

// Offset sets OFFSET; the last call wins.
func (q *Query) Offset(n int) *Query {
	return q.add(command.NewOffset(n))
}

// Tables returns the source tables of the query with every selected column
// qualified by a table's name or alias registered under that table. The
// returned tables are copies; the query is not modified.
func (q *Query) Tables() []*command.Table {
	var tables []*command.Table
	var columns []command.Column

	for _, cmd := range q.commands {
		switch c := cmd.(type) {
		case *command.From:
			tables = append(tables, copyTable(c.Table))
		case *command.Join:
			tables = append(tables, copyTable(c.Table))
		case *command.Select:
			columns = append(columns, c.Columns...)
		}
	}

	for _, col := range columns {
		for _, t := range tables {
			if t.Owns(col) {
				t.AddColumn(col)
				break
			}
		}
	}
	return tables
}

func copyTable(t *command.Table) *command.Table {
	cp := *t
	cp.Columns = make(map[string]command.Column, len(t.Columns))
	for k, v := range t.Columns {
		cp.Columns[k] = v
	}
	return &cp
}
