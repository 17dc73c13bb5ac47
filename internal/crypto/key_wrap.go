package crypto

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// keyWrapIV is the RFC 3394 default initial value.
var keyWrapIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// MinWrappedKeySize is the smallest valid wrapped key: the integrity block plus two semiblocks.
const MinWrappedKeySize = 24

// UnwrapKey unwraps wrappedKey with kek using AES Key Wrap (RFC 3394).
// It returns types.ErrIntegrityCheck when the recovered initial value does not match, which is
// what a wrong key produces. No partially unwrapped key is ever returned.
func UnwrapKey(kek, wrappedKey []byte) ([]byte, error) {
	if len(wrappedKey) < MinWrappedKeySize || len(wrappedKey)%8 != 0 {
		return nil, types.NewDecryptionError(types.ErrCodeInvalidWrappedKey,
			fmt.Sprintf("invalid wrapped key length %d (must be at least %d bytes and a multiple of 8)", len(wrappedKey), MinWrappedKeySize), nil)
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	n := len(wrappedKey)/8 - 1

	var a [8]byte
	copy(a[:], wrappedKey[:8])

	r := make([]byte, n*8)
	copy(r, wrappedKey[8:])

	var buf [16]byte
	defer Wipe(buf[:])

	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(a[:])^t)
			copy(buf[8:], r[(i-1)*8:i*8])

			block.Decrypt(buf[:], buf[:])

			copy(a[:], buf[:8])
			copy(r[(i-1)*8:i*8], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], keyWrapIV[:]) != 1 {
		Wipe(r)
		return nil, types.ErrIntegrityCheck
	}

	return r, nil
}

// WrapKey wraps key with kek using AES Key Wrap (RFC 3394).
func WrapKey(kek, key []byte) ([]byte, error) {
	if len(key) < 16 || len(key)%8 != 0 {
		return nil, fmt.Errorf("key to wrap must be at least 16 bytes and a multiple of 8, got %d", len(key))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	n := len(key) / 8
	a := keyWrapIV

	out := make([]byte, (n+1)*8)
	r := out[8:]
	copy(r, key)

	var buf [16]byte
	defer Wipe(buf[:])

	for j := 0; j < 6; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[(i-1)*8:i*8])

			block.Encrypt(buf[:], buf[:])

			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(a[:], binary.BigEndian.Uint64(buf[:8])^t)
			copy(r[(i-1)*8:i*8], buf[8:])
		}
	}

	copy(out[:8], a[:])
	return out, nil
}
