package services

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/internal/crypto"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// ClassKeyService unwraps keybag class keys with a password-derived key encryption key.
type ClassKeyService struct {
	log *logrus.Logger
}

// NewClassKeyService creates a new class key service
func NewClassKeyService(log *logrus.Logger) *ClassKeyService {
	if log == nil {
		log = logrus.New()
	}
	return &ClassKeyService{log: log}
}

// UnwrapClassKeys unwraps every password-wrapped class key in kb using kek.
//
// Asymmetric items are skipped. A single unwrap failure means the password is
// wrong and nil is returned, never a partial map. Nil is also returned when no
// class key was unwrapped. Keys unwrapped before a failure are wiped.
func (s *ClassKeyService) UnwrapClassKeys(kb *types.Keybag, kek []byte) map[uint32][]byte {
	if kb == nil {
		return nil
	}

	keys := make(map[uint32][]byte)
	for _, class := range kb.ClassIDs() {
		ck := kb.ClassKeys[class]
		if ck.IsAsymmetric() {
			s.log.WithField("class", class).Debug("Skipping asymmetric class key")
			continue
		}

		raw, err := crypto.UnwrapKey(kek, ck.WrappedKey)
		if err != nil {
			fields := logrus.Fields{"class": class}
			if !errors.Is(err, types.ErrIntegrityCheck) {
				fields["reason"] = err.Error()
			}
			s.log.WithFields(fields).Debug("Class key unwrap failed")
			for _, k := range keys {
				crypto.Wipe(k)
			}
			return nil
		}
		keys[class] = raw
	}

	if len(keys) == 0 {
		return nil
	}
	return keys
}

// DeriveKeys runs the full password check: KEK derivation followed by class key unwrap.
// It returns types.ErrIncorrectPassword when the class keys do not unwrap.
func (s *ClassKeyService) DeriveKeys(kb *types.Keybag, password []byte) (*crypto.DerivedKeys, error) {
	kek := crypto.DeriveKEK(password, kb)

	classKeys := s.UnwrapClassKeys(kb, kek)
	if classKeys == nil {
		crypto.Wipe(kek)
		return nil, types.ErrIncorrectPassword
	}

	return &crypto.DerivedKeys{KeyEncryptionKey: kek, ClassKeys: classKeys}, nil
}
