package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGesture(t *testing.T) {
	for name, want := range map[string]Gesture{
		"blink":     GestureBlink,
		"non_blink": GestureNonBlink,
		"reset":     GestureReset,
	} {
		got, err := ParseGesture(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}
}

func TestParseGestureUnknown(t *testing.T) {
	_, err := ParseGesture("wink")
	assert.ErrorIs(t, err, ErrUnknownGesture)

	_, err = ParseGesture("")
	assert.ErrorIs(t, err, ErrUnknownGesture)
}

func TestGestureSymbol(t *testing.T) {
	b, ok := GestureBlink.Symbol()
	require.True(t, ok)
	assert.Equal(t, byte('B'), b)

	n, ok := GestureNonBlink.Symbol()
	require.True(t, ok)
	assert.Equal(t, byte('N'), n)

	_, ok = GestureReset.Symbol()
	assert.False(t, ok)
}
