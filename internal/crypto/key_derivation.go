package crypto

import (
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// KeySize is the size of every key produced or unwrapped by the engine.
const KeySize = 32

// DeriveKEK derives the key encryption key for a backup keybag from the user's password.
//
// Round one is PBKDF2-HMAC-SHA256 over the password with DPSL (falling back to SALT, then 20 zero
// bytes) and DPIC iterations (default 10000). Round two is PBKDF2-HMAC-SHA1 over the round one
// output with SALT (or 20 zero bytes) and ITER iterations (default 1). The hash algorithms and
// defaults differ per round and must not be swapped.
func DeriveKEK(password []byte, kb *types.Keybag) []byte {
	zeroSalt := make([]byte, types.DefaultSaltLength)

	salt1 := zeroSalt
	switch {
	case kb.Has(types.TagDPSL):
		salt1 = kb.DPSL
	case kb.Has(types.TagSalt):
		salt1 = kb.Salt
	}

	iter1 := types.DefaultDPIC
	if kb.Has(types.TagDPIC) {
		iter1 = kb.DPIC
	}

	salt2 := zeroSalt
	if kb.Has(types.TagSalt) {
		salt2 = kb.Salt
	}

	iter2 := types.DefaultIter
	if kb.Has(types.TagIter) {
		iter2 = kb.Iter
	}

	derived := pbkdf2.Key(password, salt1, int(iter1), KeySize, sha256.New)
	defer Wipe(derived)

	return pbkdf2.Key(derived, salt2, int(iter2), KeySize, sha1.New)
}
