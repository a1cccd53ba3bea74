package chaintypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAccountName_AcceptsValidCharset(t *testing.T) {
	name, err := NewAccountName("alice.5")
	require.NoError(t, err)
	require.Equal(t, "alice.5", name.String())
	require.False(t, name.IsNull())
}

func TestNewAccountName_RejectsEmpty(t *testing.T) {
	_, err := NewAccountName("")
	require.ErrorIs(t, err, ErrInvalidAccountName)
}

func TestNewAccountName_RejectsTooLong(t *testing.T) {
	_, err := NewAccountName("abcdefghijklmnop")
	require.ErrorIs(t, err, ErrInvalidAccountName)
}

func TestNewAccountName_RejectsInvalidCharacter(t *testing.T) {
	_, err := NewAccountName("Alice")
	require.ErrorIs(t, err, ErrInvalidAccountName)

	_, err = NewAccountName("bob_smith")
	require.ErrorIs(t, err, ErrInvalidAccountName)
}

func TestNewAccountName_AcceptsMaxLength(t *testing.T) {
	name, err := NewAccountName("abcdefghijklm")
	require.NoError(t, err)
	require.Len(t, name.String(), maxAccountNameLength)
}

func TestNullAccount_IsNull(t *testing.T) {
	require.True(t, NullAccount.IsNull())
}
