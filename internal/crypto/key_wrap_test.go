package crypto

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// Test vectors from RFC 3394 section 4.
func TestUnwrapKey_RFC3394Vectors(t *testing.T) {
	tests := []struct {
		name    string
		kek     string
		key     string
		wrapped string
	}{
		{
			name:    "4.1 wrap 128 bits of key data with a 128-bit KEK",
			kek:     "000102030405060708090A0B0C0D0E0F",
			key:     "00112233445566778899AABBCCDDEEFF",
			wrapped: "1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5",
		},
		{
			name:    "4.6 wrap 256 bits of key data with a 256-bit KEK",
			kek:     "000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F",
			key:     "00112233445566778899AABBCCDDEEFF000102030405060708090A0B0C0D0E0F",
			wrapped: "28C9F404C4B810F4CBCCB35CFB87F8263F5786E2D80ED326CBC7F0E71A99F43BFB988B9B7A02DD21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kek := mustHex(t, tt.kek)
			key := mustHex(t, tt.key)
			wrapped := mustHex(t, tt.wrapped)

			got, err := WrapKey(kek, key)
			require.NoError(t, err)
			assert.Equal(t, wrapped, got)

			unwrapped, err := UnwrapKey(kek, wrapped)
			require.NoError(t, err)
			assert.Equal(t, key, unwrapped)
			assert.Len(t, unwrapped, len(wrapped)-8)
		})
	}
}

func TestUnwrapKey_RoundTrip(t *testing.T) {
	kek := make([]byte, KeySize)
	for i := range kek {
		kek[i] = byte(0x40 + i)
	}
	classKey := make([]byte, KeySize)
	for i := range classKey {
		classKey[i] = byte(0xF0 - i)
	}

	wrapped, err := WrapKey(kek, classKey)
	require.NoError(t, err)
	require.Len(t, wrapped, 40)

	unwrapped, err := UnwrapKey(kek, wrapped)
	require.NoError(t, err)
	assert.Equal(t, classKey, unwrapped)
}

func TestUnwrapKey_BitFlipFailsIntegrityCheck(t *testing.T) {
	kek := make([]byte, KeySize)
	classKey := make([]byte, KeySize)
	for i := range classKey {
		classKey[i] = byte(i * 7)
	}

	wrapped, err := WrapKey(kek, classKey)
	require.NoError(t, err)

	for bit := 0; bit < len(wrapped)*8; bit++ {
		flipped := make([]byte, len(wrapped))
		copy(flipped, wrapped)
		flipped[bit/8] ^= 1 << (bit % 8)

		got, err := UnwrapKey(kek, flipped)
		require.Error(t, err, "bit %d", bit)
		assert.True(t, errors.Is(err, types.ErrIntegrityCheck), "bit %d", bit)
		assert.Nil(t, got, "bit %d", bit)
	}
}

func TestUnwrapKey_WrongKEK(t *testing.T) {
	kek := make([]byte, KeySize)
	wrongKEK := make([]byte, KeySize)
	wrongKEK[0] = 1

	wrapped, err := WrapKey(kek, make([]byte, KeySize))
	require.NoError(t, err)

	got, err := UnwrapKey(wrongKEK, wrapped)
	assert.ErrorIs(t, err, types.ErrIntegrityCheck)
	assert.Nil(t, got)
}

func TestUnwrapKey_InvalidLength(t *testing.T) {
	kek := make([]byte, KeySize)

	for _, size := range []int{0, 8, 16, 23, 25, 33} {
		got, err := UnwrapKey(kek, make([]byte, size))
		assert.ErrorIs(t, err, types.ErrInvalidWrappedKey, "size %d", size)
		assert.Nil(t, got)
	}
}

func TestUnwrapKey_InvalidKEK(t *testing.T) {
	_, err := UnwrapKey(make([]byte, 7), make([]byte, 40))
	assert.Error(t, err)
}
