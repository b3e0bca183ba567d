package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Empty(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, c)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("%%%")
	assert.EqualError(t, err, "invalid pagination token")

	_, err = Decode("bm90LWpzb24=") // "not-json"
	assert.EqualError(t, err, "invalid pagination token")
}

func TestToken(t *testing.T) {
	tok := Token(Cursor{Email: "a@u.edu", CreatedUnix: 42})
	require.NotNil(t, tok)

	c, err := Decode(*tok)
	require.NoError(t, err)
	assert.Equal(t, "a@u.edu", c.Email)
	assert.Equal(t, int64(42), c.CreatedUnix)
}
