package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		strict    bool
		wantError bool
	}{
		// builder output
		{"simple select", "SELECT * FROM `users` WHERE (`id` = ?)", false, false},
		{"join", "SELECT * FROM `orders` INNER JOIN `users` ON `orders`.`user_id` = `users`.`id`", false, false},
		{"empty in groups", "SELECT * FROM `users` WHERE (0=1) OR (1=1)", false, false},
		{"empty not in chained with or", "SELECT * FROM `users` WHERE (`age` > ? OR (1=1))", false, false},
		{"strict accepts builder output", "SELECT DISTINCT `a` FROM `t` WHERE (`b` IN (?, ?)) LIMIT 10", true, false},
		{"hyphenated identifier", "SELECT `first-name` FROM `t`", true, false},

		// comments
		{"double dash", "SELECT * FROM users WHERE name = 'admin'-- AND password = 'x'", false, true},
		{"c style", "SELECT * FROM users WHERE id = 1 /*x*/", false, true},
		{"hash", "SELECT * FROM users WHERE id = 1# AND status = 0", false, true},

		// stacked
		{"drop", "SELECT * FROM users; DROP TABLE users", false, true},
		{"delete", "SELECT * FROM users; delete from users", false, true},
		{"update", "SELECT 1; UPDATE users SET admin = 1", false, true},

		{"union", "SELECT id FROM users UNION SELECT password FROM admins", false, true},
		{"union all", "SELECT id FROM users UNION ALL SELECT 1", false, true},
		{"sleep", "SELECT * FROM users WHERE id = 1 AND SLEEP(5)", false, true},
		{"outfile", "SELECT * FROM users INTO OUTFILE '/tmp/x'", false, true},
		{"load file", "SELECT LOAD_FILE('/etc/passwd')", false, true},
		{"schema", "SELECT * FROM information_schema.tables", false, true},
		{"tautology", "SELECT * FROM users WHERE id = 1 OR 1=1", false, true},

		// strict only
		{"quoted literal", "SELECT * FROM users WHERE name = 'bob'", false, false},
		{"quoted literal strict", "SELECT * FROM users WHERE name = 'bob'", true, true},
		{"semicolon strict", "SELECT 1;", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator(WithStrict(tt.strict)).ValidateQuery(tt.query)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsafeQuery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateParams(t *testing.T) {
	tests := []struct {
		name      string
		params    []any
		wantError bool
	}{
		{"plain values", []any{1, "Alice", true, nil, 3.5}, false},
		{"email", []any{"a@b.com"}, false},
		{"apostrophe", []any{"O'Brien"}, false},
		{"quote comment", []any{"admin'--"}, true},
		{"quote or", []any{"x' or 1=1"}, true},
		{"comment", []any{"a/*b*/"}, true},
		{"bytes", []any{[]byte("'; DROP TABLE x")}, true},
		{"procedure", []any{"exec xp_cmdshell"}, true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateParams(tt.params)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsafeParam)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate("SELECT * FROM `users` WHERE (`id` = ?)", []any{1}))
	assert.ErrorIs(t, v.Validate("SELECT 1; DROP TABLE users", nil), ErrUnsafeQuery)

	err := v.Validate("SELECT * FROM `users` WHERE (`name` = ?)", []any{"x'; DROP TABLE users"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeParam)
	assert.Contains(t, err.Error(), "binding 0")
}

func TestValidator_Strict(t *testing.T) {
	assert.False(t, NewValidator().Strict())
	assert.True(t, NewValidator(WithStrict(true)).Strict())
}
