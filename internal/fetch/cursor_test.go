package fetch

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	raw := EncodeCursor(Cursor{Offset: 40, FilterKey: "abc123"})

	c, err := ParseCursor(raw)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 40, c.Offset)
	assert.Equal(t, "abc123", c.FilterKey)
}

func TestEncodeCursorFormat(t *testing.T) {
	raw := EncodeCursor(Cursor{Offset: 40, FilterKey: "abc123"})

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, "40|abc123", string(decoded))
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor("   ")
	assert.NoError(t, err)
	assert.Nil(t, c)

	for _, bad := range []string{"%%%", EncodeCursor(Cursor{Offset: -1}), "bm9waXBl"} {
		_, err := ParseCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}
