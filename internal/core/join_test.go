package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/qbuild/internal/command"
)

func TestQuery_Join(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		name     string
		query    *Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "inner shorthand binds nothing",
			query:   b.From("orders").Join("users", "orders.user_id", "=", "users.id"),
			wantSQL: "SELECT * FROM `orders` INNER JOIN `users` ON `orders`.`user_id` = `users`.`id`",
		},
		{
			name: "left join with alias and scoped where",
			query: b.From("users").LeftJoin("profiles p",
				command.On("users.id", "=", "p.user_id").Where("p.active", "=", true)),
			wantSQL:  "SELECT * FROM `users` LEFT JOIN `profiles` AS `p` ON `users`.`id` = `p`.`user_id` AND `p`.`active` = ?",
			wantArgs: []any{true},
		},
		{
			name: "or on",
			query: b.From("a").RightJoin("b",
				command.On("a.id", "=", "b.a_id").OrOn("a.id", "=", "b.alt_id")),
			wantSQL: "SELECT * FROM `a` RIGHT JOIN `b` ON `a`.`id` = `b`.`a_id` OR `a`.`id` = `b`.`alt_id`",
		},
		{
			name:    "no condition",
			query:   b.From("a").InnerJoin("b", nil),
			wantSQL: "SELECT * FROM `a` INNER JOIN `b`",
		},
		{
			name: "mixed kinds keep call order",
			query: b.From("a").
				RightJoin("r", command.On("r.a_id", "=", "a.id")).
				LeftJoin("l", command.On("l.a_id", "=", "a.id")).
				Join("i", "i.a_id", "=", "a.id").
				LeftJoin("l2", command.On("l2.a_id", "=", "a.id")),
			wantSQL: "SELECT * FROM `a` RIGHT JOIN `r` ON `r`.`a_id` = `a`.`id` " +
				"LEFT JOIN `l` ON `l`.`a_id` = `a`.`id` INNER JOIN `i` ON `i`.`a_id` = `a`.`id` " +
				"LEFT JOIN `l2` ON `l2`.`a_id` = `a`.`id`",
		},
		{
			name: "later join may refer to an earlier one",
			query: b.From("users").
				LeftJoin("orders", command.On("users.id", "=", "orders.user_id")).
				InnerJoin("items", command.On("orders.id", "=", "items.order_id")),
			wantSQL: "SELECT * FROM `users` LEFT JOIN `orders` ON `users`.`id` = `orders`.`user_id` " +
				"INNER JOIN `items` ON `orders`.`id` = `items`.`order_id`",
		},
		{
			name: "join bindings precede where bindings",
			query: b.From("users").
				Where("users.age", ">", 30).
				LeftJoin("orders", command.On("orders.user_id", "=", "users.id").Where("orders.total", ">", 100)),
			wantSQL: "SELECT * FROM `users` LEFT JOIN `orders` ON `orders`.`user_id` = `users`.`id` AND `orders`.`total` > ? " +
				"WHERE (`users`.`age` > ?)",
			wantArgs: []any{100, 30},
		},
		{
			name:    "join type is case-insensitive",
			query:   b.From("a").JoinWith("LEFT", "b", command.On("a.id", "=", "b.id")),
			wantSQL: "SELECT * FROM `a` LEFT JOIN `b` ON `a`.`id` = `b`.`id`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertBuilds(t, tt.query, tt.wantSQL, tt.wantArgs)
		})
	}
}

func TestQuery_JoinErrors(t *testing.T) {
	b := NewBuilder()

	_, _, err := b.From("a").JoinWith("cross", "b", nil).ToSQL()
	require.Error(t, err)
	assert.ErrorIs(t, err, command.ErrInvalidJoinType)

	_, _, err = b.From("a").InnerJoin("b", command.On("a.id", "LIKE", "b.id")).ToSQL()
	require.Error(t, err)
	assert.ErrorIs(t, err, command.ErrInvalidOperator)
}
