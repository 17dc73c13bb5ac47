package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// DecryptCBC decrypts ciphertext with AES-CBC and a zero IV, then applies StripPadding.
func DecryptCBC(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, types.NewDecryptionError(types.ErrCodeInvalidCiphertext,
			fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(ciphertext), aes.BlockSize), nil)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	if len(ciphertext) == 0 {
		return plaintext, nil
	}

	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return StripPadding(plaintext), nil
}

// EncryptCBC pads plaintext with PKCS#7 and encrypts it with AES-CBC and a zero IV.
func EncryptCBC(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	p := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+p)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(p)
	}

	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	return padded, nil
}

// StripPadding removes PKCS#7 padding when the final byte p is in [1, 16]. Any other final byte
// leaves the buffer untouched; a bad padding byte is not treated as corruption.
func StripPadding(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	p := int(data[len(data)-1])
	if p < 1 || p > aes.BlockSize || p > len(data) {
		return data
	}
	return data[:len(data)-p]
}
