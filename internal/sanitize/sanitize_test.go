package sanitize

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"alice@example.com", "alice_example_com"},
		{"My User!", "my_user"},
		{"__a__b__", "a_b"},
		{"", DefaultIdentifier},
		{"***", DefaultIdentifier},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Identifier(tt.in), tt.in)
	}

	long := Identifier(strings.Repeat("a", 100))
	assert.Len(t, long, MaxIdentifierLength)
	assert.NotEqual(t, long, Identifier(strings.Repeat("a", 101)))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "tasks.create.alice_example_com", Subject("tasks.create", "alice@example.com"))
	assert.Equal(t, "tasks.create", Subject("tasks.create."))
	assert.Equal(t, "bob", Subject("", "Bob"))
	require.NoError(t, ValidateSubject(Subject("tasks.create", "a b.c")))
}

func TestValidateSubject(t *testing.T) {
	for _, ok := range []string{"tasks", "tasks.create", "tasks.create.user_1", "a-b.c"} {
		assert.NoError(t, ValidateSubject(ok), ok)
	}
	for _, bad := range []string{"", "tasks.*", "tasks.>", "tasks..create", "tasks create", ".tasks"} {
		assert.ErrorIs(t, ValidateSubject(bad), ErrInvalidSubject, bad)
	}
}

func TestValidatePath(t *testing.T) {
	root := t.TempDir()

	_, err := ValidatePath("", "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = ValidatePath("../etc/passwd", "")
	assert.ErrorIs(t, err, ErrPathTraversal)

	got, err := ValidatePath(filepath.Join(root, "tasks.db"), root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "tasks.db"), got)

	_, err = ValidatePath("/tmp/elsewhere.db", filepath.Join(root, "sub"))
	assert.ErrorIs(t, err, ErrPathTraversal)

	rel, err := ValidatePath("tasks.db", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
}
