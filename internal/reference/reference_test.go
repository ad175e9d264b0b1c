package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Reference
		rendered string
	}{
		{"column only", "id", Reference{Column: "id"}, "`id`"},
		{"table and column", "user.id", Reference{Table: "user", Column: "id"}, "`user`.`id`"},
		{"database table column", "app.user.id", Reference{Database: "app", Table: "user", Column: "id"}, "`app`.`user`.`id`"},
		{"backticked", "`user`.`id`", Reference{Table: "user", Column: "id"}, "`user`.`id`"},
		{"surrounding whitespace", "  order_id  ", Reference{Column: "order_id"}, "`order_id`"},
		{"hyphen allowed", "line-item.qty", Reference{Table: "line-item", Column: "qty"}, "`line-item`.`qty`"},
		{"trailing garbage discarded", "name; DROP TABLE users", Reference{Column: "name"}, "`name`"},
		{"wildcard", "*", Reference{Column: "*"}, "*"},
		{"table wildcard", "user.*", Reference{Table: "user", Column: "*"}, "`user`.*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Resolve(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
			assert.Equal(t, tt.rendered, ref.String())
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "``", "!!!", "user.", ".id", "a.b.c.d", "a..b"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Resolve(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestResolve_TableDotColumnRendersQuoted(t *testing.T) {
	pairs := [][2]string{{"t", "c"}, {"orders", "user_id"}, {"u2", "created_at"}}
	for _, p := range pairs {
		ref, err := Resolve(p[0] + "." + p[1])
		require.NoError(t, err)
		assert.Equal(t, "`"+p[0]+"`.`"+p[1]+"`", ref.String())
	}
}

func TestClean_Idempotent(t *testing.T) {
	assert.Equal(t, "id", Clean("`id`"))
	assert.Equal(t, Clean("`id`"), Clean(Clean("`id`")))

	ref, err := Resolve("`id`")
	require.NoError(t, err)
	again, err := Resolve(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, again)
}

func TestResolveTable(t *testing.T) {
	ref, err := ResolveTable("orders")
	require.NoError(t, err)
	assert.Equal(t, "`orders`", ref.String())
	assert.True(t, ref.IsTable())

	ref, err = ResolveTable("shop.orders")
	require.NoError(t, err)
	assert.Equal(t, Reference{Database: "shop", Table: "orders"}, ref)

	_, err = ResolveTable("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestSplitAlias(t *testing.T) {
	tests := []struct {
		raw, ref, alias string
	}{
		{"users", "users", ""},
		{"users u", "users", "u"},
		{"users AS u", "users", "u"},
		{"shop.users as u", "shop.users", "u"},
		{"  users  ", "users", ""},
	}
	for _, tt := range tests {
		ref, alias := SplitAlias(tt.raw)
		assert.Equal(t, tt.ref, ref, tt.raw)
		assert.Equal(t, tt.alias, alias, tt.raw)
	}
}

func TestAlias(t *testing.T) {
	quoted, err := Alias("user_id")
	require.NoError(t, err)
	assert.Equal(t, "`user_id`", quoted)

	_, err = Alias("a.b")
	assert.ErrorIs(t, err, ErrInvalidReference)
}
