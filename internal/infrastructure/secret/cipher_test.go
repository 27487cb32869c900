package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewCipher_RejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "zz", testKey[:62], testKey + "00"} {
		_, err := NewCipher(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Seal("s3cr3t", "tenant-a")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "s3cr3t")

	plain, err := c.Open(sealed, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", plain)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	a, err := c.Seal("same", "t")
	require.NoError(t, err)
	b, err := c.Seal("same", "t")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_OpenFailures(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)
	sealed, err := c.Seal("s3cr3t", "tenant-a")
	require.NoError(t, err)

	_, err = c.Open(sealed, "tenant-b")
	assert.Error(t, err)

	_, err = c.Open("not base64!", "tenant-a")
	assert.ErrorIs(t, err, ErrMalformedCipherText)

	_, err = c.Open("AAAA", "tenant-a")
	assert.ErrorIs(t, err, ErrMalformedCipherText)

	other, err := NewCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)
	_, err = other.Open(sealed, "tenant-a")
	assert.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, 64)

	_, err = NewCipher(key)
	assert.NoError(t, err)
}
