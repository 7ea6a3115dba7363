package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestNewAESCrypto_KeySize(t *testing.T) {
	svc, err := NewAESCrypto(testKey())
	require.NoError(t, err)
	require.NotNil(t, svc)

	for _, size := range []int{0, 16, 24, 31, 33} {
		_, err := NewAESCrypto(make([]byte, size))
		assert.ErrorIs(t, err, ErrInvalidKeySize, "size %d", size)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc, err := NewAESCrypto(testKey())
	require.NoError(t, err)

	secret := "binance-api-secret-AKIA1234567890"

	ciphertext, err := svc.Encrypt(secret)
	require.NoError(t, err)
	assert.NotEqual(t, secret, ciphertext)
	assert.NotContains(t, ciphertext, "binance")

	plaintext, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, secret, plaintext)
}

func TestEncrypt_EmptyString(t *testing.T) {
	svc, _ := NewAESCrypto(testKey())

	ciphertext, err := svc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, ciphertext)

	plaintext, err := svc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, plaintext)
}

func TestEncrypt_NonceUniqueness(t *testing.T) {
	svc, _ := NewAESCrypto(testKey())

	first, err := svc.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := svc.Encrypt("same plaintext")
	require.NoError(t, err)

	// A fresh nonce per call means identical plaintexts never produce
	// identical ciphertexts
	assert.NotEqual(t, first, second)
}

func TestDecrypt_InvalidInputs(t *testing.T) {
	svc, _ := NewAESCrypto(testKey())

	_, err := svc.Decrypt("not-base64!!!")
	assert.ErrorContains(t, err, "failed to decode base64")

	// Valid base64 but shorter than a nonce
	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	_, err = svc.Decrypt(short)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	svc, _ := NewAESCrypto(testKey())

	ciphertext, err := svc.Encrypt("order-signing-secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = svc.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_WrongKey(t *testing.T) {
	svc1, _ := NewAESCrypto(testKey())
	svc2, _ := NewAESCrypto([]byte(strings.Repeat("k", 32)))

	ciphertext, err := svc1.Encrypt("secret")
	require.NoError(t, err)

	_, err = svc2.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
