package crypto

import (
	"github.com/awnumar/memguard"
)

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}

// WipeAll wipes every slice.
func WipeAll(slices ...[]byte) {
	for _, s := range slices {
		Wipe(s)
	}
}

// DerivedKeys holds the key material recovered from a keybag for one decryption attempt.
// It is never persisted. Call Wipe when done, including on error paths.
type DerivedKeys struct {
	KeyEncryptionKey []byte
	ClassKeys        map[uint32][]byte
}

// ClassKey returns the raw key for class, if unwrapped.
func (dk *DerivedKeys) ClassKey(class uint32) ([]byte, bool) {
	if dk == nil {
		return nil, false
	}
	key, ok := dk.ClassKeys[class]
	return key, ok
}

// Wipe zero-fills the KEK and every class key and drops the references.
func (dk *DerivedKeys) Wipe() {
	if dk == nil {
		return
	}
	Wipe(dk.KeyEncryptionKey)
	dk.KeyEncryptionKey = nil
	for class, key := range dk.ClassKeys {
		Wipe(key)
		delete(dk.ClassKeys, class)
	}
}
