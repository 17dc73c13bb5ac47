package types

import "sort"

// Backup keybag (Manifest.plist BackupKeyBag)
// The keybag is a flat stream of tag-length-value records. Each record carries a four character
// ASCII tag, a big-endian 32-bit value length, and the value bytes.

// KeybagTag identifies a known keybag record tag.
type KeybagTag uint8

const (
	// TagUnknown is returned for any tag this package does not interpret. Unknown records are skipped.
	TagUnknown KeybagTag = iota
	TagVersion
	TagType
	TagUUID
	TagHMCK
	TagWrap
	TagSalt
	TagIter
	TagDPWT
	TagDPIC
	TagDPSL
	TagClass
	TagKeyType
	TagWrappedKey
	TagPublicKey
)

var keybagTagNames = map[string]KeybagTag{
	"VERS": TagVersion,
	"TYPE": TagType,
	"UUID": TagUUID,
	"HMCK": TagHMCK,
	"WRAP": TagWrap,
	"SALT": TagSalt,
	"ITER": TagIter,
	"DPWT": TagDPWT,
	"DPIC": TagDPIC,
	"DPSL": TagDPSL,
	"CLAS": TagClass,
	"KTYP": TagKeyType,
	"WPKY": TagWrappedKey,
	"PBKY": TagPublicKey,
}

// ParseKeybagTag maps a four character tag to its KeybagTag. Matching is case-sensitive.
func ParseKeybagTag(fourcc string) KeybagTag {
	if tag, ok := keybagTagNames[fourcc]; ok {
		return tag
	}
	return TagUnknown
}

// String returns the four character form of the tag.
func (t KeybagTag) String() string {
	for name, tag := range keybagTagNames {
		if tag == t {
			return name
		}
	}
	return "????"
}

// KeybagTagHeaderSize is the size of a tag plus its length field.
const KeybagTagHeaderSize = 8

// Class key wrap types
const (
	// WrapPassword marks a class key wrapped with the password-derived key.
	WrapPassword uint32 = 0

	// WrapAsymmetric marks a class key that is not unwrapped with the password.
	WrapAsymmetric uint32 = 2
)

// Key derivation defaults applied when the keybag omits the corresponding record.
const (
	DefaultDPIC       uint32 = 10000
	DefaultIter       uint32 = 1
	DefaultSaltLength        = 20
)

// ClassKey is one protection class's wrapped key material.
type ClassKey struct {
	Class      uint32
	Wrap       uint32
	KeyType    uint32
	UUID       []byte
	WrappedKey []byte

	// Extra holds item-level records that do not affect unwrapping (SALT, ITER, DPIC, DPSL, DPWT).
	Extra map[KeybagTag][]byte
}

// IsAsymmetric reports whether the key is excluded from password-based unwrapping.
func (ck *ClassKey) IsAsymmetric() bool {
	return ck.Wrap == WrapAsymmetric
}

// Keybag is the parsed backup keybag. It is not modified after parsing.
type Keybag struct {
	Version uint32
	Type    uint32
	UUID    []byte
	HMCK    []byte
	Wrap    uint32
	Salt    []byte
	Iter    uint32
	DPWT    uint32
	DPIC    uint32
	DPSL    []byte

	// ClassKeys maps protection class to its committed class key.
	ClassKeys map[uint32]*ClassKey

	present map[KeybagTag]bool
}

// NewKeybag returns an empty keybag ready to be populated by a parser.
func NewKeybag() *Keybag {
	return &Keybag{
		ClassKeys: make(map[uint32]*ClassKey),
		present:   make(map[KeybagTag]bool),
	}
}

// MarkPresent records that a keybag-level tag was seen.
func (kb *Keybag) MarkPresent(tag KeybagTag) {
	if kb.present == nil {
		kb.present = make(map[KeybagTag]bool)
	}
	kb.present[tag] = true
}

// Has reports whether the keybag carried a keybag-level record for tag.
func (kb *Keybag) Has(tag KeybagTag) bool {
	return kb.present[tag]
}

// ClassIDs returns the committed class IDs in ascending order.
func (kb *Keybag) ClassIDs() []uint32 {
	ids := make([]uint32, 0, len(kb.ClassKeys))
	for id := range kb.ClassKeys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
