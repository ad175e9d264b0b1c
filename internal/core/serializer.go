package core

import (
	"fmt"
	"strings"

	"github.com/coregx/qbuild/internal/command"
)

// Statement is a serialized query.
type Statement struct {
	SQL      string
	Bindings []any
}

// joinSlot holds every join kind. Joins keep their call order since an ON
// condition may refer to a table joined before it.
const joinSlot = "JOIN"

// clauseOrder is the order clauses are emitted in, independent of the order
// the builder methods were called in.
var clauseOrder = []string{
	command.TagSelect,
	command.TagFrom,
	joinSlot,
	command.TagWhere,
	command.TagGroupBy,
	command.TagHaving,
	command.TagOrderBy,
	command.TagLimit,
	command.TagOffset,
}

// Build serializes the query. It returns the first error recorded while the
// query was assembled, if any.
func (q *Query) Build() (*Statement, error) {
	if q.err != nil {
		return nil, q.err
	}

	buckets := make(map[string][]command.Command, len(clauseOrder))
	for _, cmd := range q.commands {
		slot := slotOf(cmd.Tag())
		if !knownSlot(slot) {
			panic(fmt.Sprintf("qbuild: unknown clause tag %q", cmd.Tag()))
		}
		buckets[slot] = append(buckets[slot], cmd)
	}

	// MySQL and SQLite both reject a bare OFFSET.
	if offsets := buckets[command.TagOffset]; len(offsets) > 0 && len(buckets[command.TagLimit]) == 0 {
		err := &command.ClauseError{
			Clause: command.TagOffset,
			Input:  strings.Join(offsets[len(offsets)-1].Fragments(), " "),
			Err:    fmt.Errorf("%w: OFFSET needs LIMIT", command.ErrInvalidLimit),
		}
		q.builder.logger.Warn("invalid clause", "error", err)
		return nil, err
	}

	var sb strings.Builder
	var args []any
	for _, tag := range clauseOrder {
		cmds := buckets[tag]
		if tag != command.TagSelect && len(cmds) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		args = append(args, writeClause(&sb, tag, cmds)...)
	}

	stmt := &Statement{SQL: sb.String(), Bindings: args}
	if stmt.Bindings == nil {
		stmt.Bindings = []any{}
	}

	q.builder.logger.Debug("query built",
		"sql", stmt.SQL,
		"params", q.builder.sanitizer.FormatParams(q.builder.sanitizer.MaskParams(stmt.SQL, stmt.Bindings)),
	)
	return stmt, nil
}

// ToSQL is Build returning the statement parts.
func (q *Query) ToSQL() (string, []any, error) {
	stmt, err := q.Build()
	if err != nil {
		return "", nil, err
	}
	return stmt.SQL, stmt.Bindings, nil
}

func slotOf(tag string) string {
	switch tag {
	case command.TagSelectDistinct:
		return command.TagSelect
	case command.TagInnerJoin, command.TagLeftJoin, command.TagRightJoin:
		return joinSlot
	}
	return tag
}

func knownSlot(slot string) bool {
	for _, s := range clauseOrder {
		if s == slot {
			return true
		}
	}
	return false
}

// writeClause renders one clause of cmds, which all share slot tag, and returns
// their bindings in emission order.
func writeClause(sb *strings.Builder, tag string, cmds []command.Command) []any {
	var args []any
	collect := func(c command.Command) {
		args = append(args, c.Bindings()...)
	}

	switch tag {
	case command.TagSelect:
		keyword := command.TagSelect
		var cols []string
		for _, c := range cmds {
			if sel, ok := c.(*command.Select); ok && sel.Distinct() {
				keyword = command.TagSelectDistinct
			}
			cols = append(cols, c.Fragments()...)
			collect(c)
		}
		sb.WriteString(keyword)
		sb.WriteByte(' ')
		sb.WriteString(selectList(cols))

	case joinSlot:
		for i, c := range cmds {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(c.Tag())
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(c.Fragments(), " "))
			collect(c)
		}

	case command.TagWhere, command.TagHaving:
		sb.WriteString(tag)
		for i, c := range cmds {
			sb.WriteByte(' ')
			if i > 0 {
				if cc, ok := c.(command.Connected); ok {
					sb.WriteString(cc.Connector())
				} else {
					sb.WriteString("AND")
				}
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.Join(c.Fragments(), " "))
			collect(c)
		}

	case command.TagLimit, command.TagOffset:
		last := cmds[len(cmds)-1]
		sb.WriteString(tag)
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(last.Fragments(), " "))
		collect(last)

	default:
		// FROM, GROUP BY, ORDER BY: comma separated fragments.
		var parts []string
		for _, c := range cmds {
			parts = append(parts, c.Fragments()...)
			collect(c)
		}
		sb.WriteString(tag)
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(parts, ", "))
	}
	return args
}

// selectList joins projection fragments. A bare "*" is dropped once explicit
// columns are present and no projection at all means "*".
func selectList(cols []string) string {
	explicit := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != "*" {
			explicit = append(explicit, c)
		}
	}
	if len(explicit) == 0 {
		return "*"
	}
	return strings.Join(explicit, ", ")
}
