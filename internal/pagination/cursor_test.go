package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC)

	encoded := EncodeCursor("esc-42", ts)
	require.NotEmpty(t, encoded)

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "esc-42", cursor.LastID)
	assert.True(t, cursor.Timestamp.Equal(ts))
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor_EmptyMeansFirstPage(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!not-base64!!"},
		{"no separator", "aGVsbG8="},                     // "hello"
		{"bad timestamp", "aWR8bm90LWEtdGltZXN0YW1w"},    // "id|not-a-timestamp"
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
