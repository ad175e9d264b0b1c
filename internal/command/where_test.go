package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/qbuild/internal/operand"
)

func TestCond_Compare(t *testing.T) {
	tests := []struct {
		name     string
		cond     *Cond
		sql      string
		bindings []any
	}{
		{"literal", NewCond("name", "=", "David"), "`name` = ?", []any{"David"}},
		{"reference on the right", NewCond("orders.user_id", "=", "users.id"), "`orders`.`user_id` = `users`.`id`", nil},
		{"backticked right", NewCond("a", "<>", "`b`"), "`a` <> `b`", nil},
		{"lower-case operator", NewCond("name", "like", "%dav%"), "`name` LIKE ?", []any{"%dav%"}},
		{"spaced operator", NewCond("name", "not   like", "x%"), "`name` NOT LIKE ?", []any{"x%"}},
		{"regexp", NewCond("code", "NOT REGEXP", "^[0-9]+$"), "`code` NOT REGEXP ?", []any{"^[0-9]+$"}},
		{"between", NewCond("age", "BETWEEN", []int{18, 65}), "`age` BETWEEN ? AND ?", []any{18, 65}},
		{"between columns", NewCond("age", "BETWEEN", []any{"limits.low", 65}), "`age` BETWEEN `limits`.`low` AND ?", []any{65}},
		{"nil equality", NewCond("deleted_at", "=", nil), "`deleted_at` IS NULL", nil},
		{"nil inequality", NewCond("deleted_at", "!=", nil), "`deleted_at` IS NOT NULL", nil},
		{"explicit value", NewCond("version", "=", operand.Val("v1.2")), "`version` = ?", []any{"v1.2"}},
		{"dotted literal stays literal", NewCond("price", ">", "3.14"), "`price` > ?", []any{"3.14"}},
		{"aggregate left", NewCond("COUNT(id)", ">", 5), "COUNT(`id`) > ?", []any{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.cond.Err())
			sql, args := tt.cond.Render()
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.bindings, args)
		})
	}
}

func TestCond_Chains(t *testing.T) {
	c := NewCond("name", "=", "David").
		And("age", ">", 21).
		OrGroup(NewCond("role", "=", "admin").And("active", "=", true)).
		AndIn("status", 1, 2).
		OrNull("deleted_at").
		AndNotNull("email").
		AndNotIn("id", []int{7, 8}).
		OrIn("tag", []string{}).
		AndNotIn("kind")

	require.NoError(t, c.Err())
	sql, args := c.Render()
	assert.Equal(t,
		"`name` = ? AND `age` > ? OR (`role` = ? AND `active` = ?) AND `status` IN (?, ?)"+
			" OR `deleted_at` IS NULL AND `email` IS NOT NULL AND `id` NOT IN (?, ?) OR (0=1) AND (1=1)",
		sql)
	assert.Equal(t, []any{"David", 21, "admin", true, 1, 2, 7, 8}, args)
	assert.Equal(t, strings.Count(sql, "?"), len(args))
}

func TestCond_NestedGroupsKeepBindingOrder(t *testing.T) {
	c := NewCond("a", "=", 1).AndGroup(
		NewCond("b", "=", 2).OrGroup(
			NewCond("c", "=", 3).And("d", "=", 4),
		),
	).And("e", "=", 5)

	sql, args := c.Render()
	assert.Equal(t, "`a` = ? AND (`b` = ? OR (`c` = ? AND `d` = ?)) AND `e` = ?", sql)
	assert.Equal(t, []any{1, 2, 3, 4, 5}, args)
}

func TestCond_SinglePredicateGroupHasNoExtraParens(t *testing.T) {
	sql, _ := NewCond("a", "=", 1).OrGroup(NewCond("b", "=", 2)).Render()
	assert.Equal(t, "`a` = ? OR `b` = ?", sql)
}

func TestCond_Errors(t *testing.T) {
	tests := []struct {
		name string
		cond *Cond
		err  error
	}{
		{"unknown operator", NewCond("a", "==", 1), ErrInvalidOperator},
		{"IN through compare", NewCond("a", "IN", []int{1}), ErrInvalidOperator},
		{"IS through compare", NewCond("a", "IS", nil), ErrInvalidOperator},
		{"bad column", NewCond("!!", "=", 1), ErrInvalidReference},
		{"list without IN", NewCond("a", "=", []int{1, 2}), ErrInvalidBinding},
		{"between with one value", NewCond("a", "BETWEEN", []int{1}), ErrInvalidBinding},
		{"between scalar", NewCond("a", "BETWEEN", 1), ErrInvalidBinding},
		{"struct literal", NewCond("a", "=", struct{}{}), ErrInvalidBinding},
		{"nested list", NewInCond("a", []int{1}, []int{2}), ErrInvalidBinding},
		{"error sticks", NewCond("a", "??", 1).And("b", "=", 2), ErrInvalidOperator},
		{"error from subgroup", NewCond("a", "=", 1).AndGroup(NewCond("b", "~", 2)), ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cond.Err(), tt.err)
		})
	}

	sticky := NewCond("a", "??", 1).And("b", "=", 2)
	assert.Equal(t, 0, sticky.Len())
}

func TestNewWhere(t *testing.T) {
	w, err := NewWhere(GroupWhere, NewCond("name", "=", "David").And("age", ">", 21))
	require.NoError(t, err)
	assert.Equal(t, TagWhere, w.Tag())
	assert.Equal(t, []string{"(`name` = ? AND `age` > ?)"}, w.Fragments())
	assert.Equal(t, []any{"David", 21}, w.Bindings())
	assert.Equal(t, "AND", w.Connector())

	w, err = NewWhere(GroupOr, NewNullCond("deleted_at"))
	require.NoError(t, err)
	assert.Equal(t, "OR", w.Connector())
	assert.Equal(t, []string{"(`deleted_at` IS NULL)"}, w.Fragments())
}

func TestNewWhere_EmptyListsAreParenthesizedOnce(t *testing.T) {
	w, err := NewWhere(GroupWhere, NewInCond("id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"(0=1)"}, w.Fragments())

	w, err = NewWhere(GroupWhere, NewCond("age", ">", 18).OrNotIn("id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"(`age` > ? OR (1=1))"}, w.Fragments())
}

func TestNewWhere_CondIsSnapshot(t *testing.T) {
	c := NewCond("a", "=", 1)
	w, err := NewWhere(GroupWhere, c)
	require.NoError(t, err)

	c.And("b", "=", 2)

	sql, args := w.Cond.Render()
	assert.Equal(t, "`a` = ?", sql)
	assert.Equal(t, []any{1}, args)
	assert.Equal(t, []string{"(`a` = ?)"}, w.Fragments())
}

func TestNewWhere_Errors(t *testing.T) {
	_, err := NewWhere("xor", NewCond("a", "=", 1))
	assert.ErrorIs(t, err, ErrInvalidGroupType)

	_, err = NewWhere(GroupWhere, nil)
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = NewHaving(GroupWhere, NewCond("COUNT(id)", "===", 1))
	require.ErrorIs(t, err, ErrInvalidOperator)
	var ce *ClauseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, TagHaving, ce.Clause)
}

func TestParseGroupType(t *testing.T) {
	for in, expected := range map[string]GroupType{"": GroupWhere, "WHERE": GroupWhere, "and": GroupAnd, " Or ": GroupOr} {
		g, err := ParseGroupType(in)
		require.NoError(t, err)
		assert.Equal(t, expected, g)
	}
	_, err := ParseGroupType("nand")
	assert.ErrorIs(t, err, ErrInvalidGroupType)
}
