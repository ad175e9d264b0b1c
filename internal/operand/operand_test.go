package operand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReference(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"user.id", true},
		{"app.user.id", true},
		{"`id`", true},
		{"`user`.`id`", true},
		{"user.*", true},
		{"order_items.unit-price", true},
		{" user.id ", true},

		{"id", false},
		{"David", false},
		{"", false},
		{"user.", false},
		{".id", false},
		{"3.14", false},
		{"v1.2", false},
		{"1.2.3", false},
		{"john.doe@example.com", false},
		{"a.b.c.d", false},
		{"hello world. bye", false},
		{"`", false},
		{"user.id = 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsReference(tt.input))
		})
	}
}

func TestClassify(t *testing.T) {
	type status int

	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{"dotted string", "users.id", KindReference},
		{"plain string", "David", KindLiteral},
		{"int", 21, KindLiteral},
		{"float", 1.5, KindLiteral},
		{"bool", true, KindLiteral},
		{"nil", nil, KindLiteral},
		{"bytes", []byte("raw"), KindLiteral},
		{"time", time.Unix(0, 0), KindLiteral},
		{"named int", status(2), KindLiteral},
		{"any slice", []any{1, "users.id"}, KindList},
		{"int slice", []int{1, 2, 3}, KindList},
		{"string array", [2]string{"a", "b"}, KindList},
		{"explicit column", Col("name"), KindReference},
		{"explicit value", Val("users.id"), KindLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Classify(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, op.Kind())
		})
	}
}

func TestClassify_NestedListRejected(t *testing.T) {
	_, err := Classify([]any{1, []int{2, 3}})
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestRender_List_MixedReferencesAndLiterals(t *testing.T) {
	op, err := Classify([]any{"a", "users.name", 3})
	require.NoError(t, err)
	assert.Equal(t, 3, op.Len())

	sql, args, err := op.Render()
	require.NoError(t, err)
	assert.Equal(t, "(?, `users`.`name`, ?)", sql)
	assert.Equal(t, []any{"a", 3}, args)
}

func TestRender_ExplicitValueNeverInlined(t *testing.T) {
	sql, args, err := Val("users.id").Render()
	require.NoError(t, err)
	assert.Equal(t, "?", sql)
	assert.Equal(t, []any{"users.id"}, args)
}

func TestRender_ExplicitColumn(t *testing.T) {
	sql, args, err := Col("name").Render()
	require.NoError(t, err)
	assert.Equal(t, "`name`", sql)
	assert.Empty(t, args)
}

func TestBind_RejectsNonScalars(t *testing.T) {
	for _, v := range []any{struct{}{}, map[string]int{}, make(chan int)} {
		_, _, err := Bind(v)
		assert.ErrorIs(t, err, ErrInvalidBinding)
	}
}

func TestColumn_Aggregates(t *testing.T) {
	tests := map[string]string{
		"COUNT(*)":                "COUNT(*)",
		"count(id)":               "COUNT(`id`)",
		"SUM(orders.total)":       "SUM(`orders`.`total`)",
		"max( `price` )":          "MAX(`price`)",
		"COUNT(DISTINCT user.id)": "COUNT(DISTINCT `user`.`id`)",
		"user.id":                 "`user`.`id`",
	}
	for in, expected := range tests {
		got, err := Column(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, got, in)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "reference", KindReference.String())
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
