package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_NewInvalidKey(t *testing.T) {
	tests := []string{"", "zz", "0123456789abcdef"}
	for _, key := range tests {
		_, err := NewAESEncryptionService(key)
		assert.Error(t, err, key)
	}
}

func TestAESEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	secret := "4f3c2b1a00ffeeddccbbaa99887766554f3c2b1a00ffeeddccbbaa9988776655"
	sealed, err := svc.Encrypt(secret)
	require.NoError(t, err)
	assert.NotContains(t, sealed, secret)

	opened, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, secret, opened)
}

func TestAESEncryptionService_FreshNonces(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESEncryptionService_Tampered(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	sealed, err := svc.Encrypt("secret")
	require.NoError(t, err)

	flipped := []byte(sealed)
	if flipped[len(flipped)-1] == '0' {
		flipped[len(flipped)-1] = '1'
	} else {
		flipped[len(flipped)-1] = '0'
	}
	_, err = svc.Decrypt(string(flipped))
	assert.Error(t, err)
}

func TestAESEncryptionService_WrongKey(t *testing.T) {
	a, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)
	b, err := NewAESEncryptionService("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	sealed, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(sealed)
	assert.Error(t, err)
}

func TestAESEncryptionService_Garbage(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	_, err = svc.Decrypt("not-hex")
	assert.Error(t, err)
	_, err = svc.Decrypt("abcd")
	assert.ErrorContains(t, err, "too short")
}
