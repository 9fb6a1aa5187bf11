package course

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNavigator_AdvanceClampsAtEnd(t *testing.T) {
	n := NewNavigator(3)
	require.Equal(t, 0, n.Index())

	n.Advance()
	require.Equal(t, 1, n.Index())
	n.Advance()
	require.Equal(t, 2, n.Index())
	require.True(t, n.AtEnd())

	// Idempotent at the last index.
	n.Advance()
	require.Equal(t, 2, n.Index())
}

func TestNavigator_RetreatClampsAtZero(t *testing.T) {
	n := NewNavigator(3)

	n.Retreat()
	require.Equal(t, 0, n.Index())

	n.Advance()
	n.Retreat()
	require.Equal(t, 0, n.Index())
	n.Retreat()
	require.Equal(t, 0, n.Index())
}

func TestNavigator_JumpTo(t *testing.T) {
	n := NewNavigator(4)

	require.NoError(t, n.JumpTo(3))
	require.Equal(t, 3, n.Index())

	require.ErrorIs(t, n.JumpTo(4), ErrInvalidIndex)
	require.ErrorIs(t, n.JumpTo(-1), ErrInvalidIndex)
	require.Equal(t, 3, n.Index(), "rejected jump must not move the index")

	require.NoError(t, n.JumpTo(0))
	require.Equal(t, 0, n.Index())
}

func TestNavigator_SinglePart(t *testing.T) {
	n := NewNavigator(1)
	n.Advance()
	require.Equal(t, 0, n.Index())
	require.True(t, n.AtEnd())
}
