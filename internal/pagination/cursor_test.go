package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{
		Time: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:   "1234",
	}

	decoded, err := Decode(Encode(orig))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.Time.Equal(orig.Time), "timestamp must survive the round trip to microsecond precision")
	assert.Equal(t, orig.ID, decoded.ID)
}

func TestCursorRoundTripObjectID(t *testing.T) {
	orig := Cursor{Time: time.UnixMicro(1757000000123456), ID: "65f1c0ffee0123456789abcd"}

	decoded, err := Decode(Encode(orig))
	require.NoError(t, err)
	assert.Equal(t, orig.ID, decoded.ID)
}

func TestDecodeEmptyTokenMeansStart(t *testing.T) {
	cur, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":        "%%%",
		"no separator":      "MTIzNDU2",       // base64("123456")
		"empty id":          "MTIzOjo",        // base64("123::")
		"non-numeric stamp": "YWJjOjoxMjM",    // base64("abc::123")
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			assert.Error(t, err)
		})
	}
}

func TestUintID(t *testing.T) {
	id, err := Cursor{ID: "42"}.UintID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = Cursor{ID: "65f1c0ffee0123456789abcd"}.UintID()
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, DefaultLimit, Clamp(0))
	assert.Equal(t, DefaultLimit, Clamp(-5))
	assert.Equal(t, 1, Clamp(1))
	assert.Equal(t, 50, Clamp(50))
	assert.Equal(t, MaxLimit, Clamp(MaxLimit+1))
}

func TestNextToken(t *testing.T) {
	at := time.UnixMicro(1757000000000000)

	assert.Empty(t, NextToken(at, "9", 5, 50), "partial page must not emit a continuation")
	assert.NotEmpty(t, NextToken(at, "9", 50, 50), "full page must emit a continuation")
}
