package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()
	plaintext := `{"cookies":{"signed_token":"abc123"}}`

	ciphertext, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "abc123")

	got, err := Decrypt(key, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	key := testKey()

	a, err := Encrypt(key, "same input")
	require.NoError(t, err)
	b, err := Encrypt(key, "same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKey(t *testing.T) {
	ciphertext, err := Encrypt(testKey(), "secret")
	require.NoError(t, err)

	otherKey := testKey()
	otherKey[0] ^= 0xff

	_, err = Decrypt(otherKey, ciphertext)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key := testKey()
	ciphertext, err := Encrypt(key, "secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(key, tampered)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptGarbage(t *testing.T) {
	key := testKey()

	_, err := Decrypt(key, "not base64 at all!!!")
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Decrypt(key, base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNoKeyConfigured(t *testing.T) {
	_, err := Encrypt(nil, "secret")
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = Decrypt(nil, "whatever")
	assert.ErrorIs(t, err, ErrNoKey)
}
