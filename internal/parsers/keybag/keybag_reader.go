package keybag

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// keybagReader implements the KeybagReader interface
type keybagReader struct {
	keybag *types.Keybag
}

var _ interfaces.KeybagReader = (*keybagReader)(nil)

// NewKeybagReader parses raw keybag data and returns a reader over the result
func NewKeybagReader(data []byte) interfaces.KeybagReader {
	return &keybagReader{keybag: Parse(data)}
}

// Parse reads a backup keybag from its tag-length-value encoding.
//
// Parsing never fails. A header or value that would run past the end of data stops the parse and
// whatever was assembled so far is returned. Class keys are committed when the next CLAS record or
// the end of input is reached, and only if they carried a WPKY record.
func Parse(data []byte) *types.Keybag {
	p := &parser{kb: types.NewKeybag()}

	for pos := 0; pos+types.KeybagTagHeaderSize <= len(data); {
		fourcc := string(data[pos : pos+4])
		length := uint64(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + types.KeybagTagHeaderSize

		if length > uint64(len(data)-start) {
			break
		}

		end := start + int(length)
		p.handle(types.ParseKeybagTag(fourcc), bytes.Clone(data[start:end]))
		pos = end
	}

	p.commit()
	return p.kb
}

type parser struct {
	kb          *types.Keybag
	current     *types.ClassKey
	pendingUUID []byte
}

func (p *parser) handle(tag types.KeybagTag, value []byte) {
	switch tag {
	case types.TagUnknown:
		return
	case types.TagClass:
		p.commit()
		p.current = &types.ClassKey{
			Class: uint32(beUint(value)),
			UUID:  p.pendingUUID,
			Extra: make(map[types.KeybagTag][]byte),
		}
		p.pendingUUID = nil
		return
	}

	if p.current == nil {
		p.handleKeybagTag(tag, value)
		return
	}
	p.handleClassKeyTag(tag, value)
}

func (p *parser) handleKeybagTag(tag types.KeybagTag, value []byte) {
	kb := p.kb

	switch tag {
	case types.TagVersion:
		kb.Version = uint32(beUint(value))
	case types.TagType:
		kb.Type = uint32(beUint(value))
	case types.TagUUID:
		// The first UUID names the keybag; later ones belong to the class key opened next.
		if kb.Has(types.TagUUID) {
			p.pendingUUID = value
			return
		}
		kb.UUID = value
	case types.TagHMCK:
		kb.HMCK = value
	case types.TagWrap:
		kb.Wrap = uint32(beUint(value))
	case types.TagSalt:
		kb.Salt = value
	case types.TagIter:
		kb.Iter = uint32(beUint(value))
	case types.TagDPWT:
		kb.DPWT = uint32(beUint(value))
	case types.TagDPIC:
		kb.DPIC = uint32(beUint(value))
	case types.TagDPSL:
		kb.DPSL = value
	default:
		return
	}
	kb.MarkPresent(tag)
}

func (p *parser) handleClassKeyTag(tag types.KeybagTag, value []byte) {
	ck := p.current

	switch tag {
	case types.TagWrappedKey:
		ck.WrappedKey = value
	case types.TagWrap:
		ck.Wrap = uint32(beUint(value))
	case types.TagKeyType:
		ck.KeyType = uint32(beUint(value))
	case types.TagUUID:
		if ck.UUID != nil {
			p.pendingUUID = value
			return
		}
		ck.UUID = value
	default:
		ck.Extra[tag] = value
	}
}

func (p *parser) commit() {
	if p.current != nil && p.current.WrappedKey != nil {
		p.kb.ClassKeys[p.current.Class] = p.current
	}
	p.current = nil
}

// beUint decodes up to eight big-endian bytes.
func beUint(value []byte) uint64 {
	if len(value) > 8 {
		value = value[len(value)-8:]
	}
	var v uint64
	for _, b := range value {
		v = v<<8 | uint64(b)
	}
	return v
}

// Keybag returns the parsed keybag
func (kr *keybagReader) Keybag() *types.Keybag {
	return kr.keybag
}

// UUID returns the keybag identifier
func (kr *keybagReader) UUID() string {
	return FormatUUID(kr.keybag.UUID)
}

// Type returns the keybag type
func (kr *keybagReader) Type() uint32 {
	return kr.keybag.Type
}

// ListClassKeys returns the committed class keys ordered by class
func (kr *keybagReader) ListClassKeys() []*types.ClassKey {
	ids := kr.keybag.ClassIDs()
	keys := make([]*types.ClassKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, kr.keybag.ClassKeys[id])
	}
	return keys
}

// PasswordWrappedClasses returns the classes unwrapped with the password-derived key
func (kr *keybagReader) PasswordWrappedClasses() []uint32 {
	var classes []uint32
	for _, ck := range kr.ListClassKeys() {
		if !ck.IsAsymmetric() {
			classes = append(classes, ck.Class)
		}
	}
	return classes
}

// FormatUUID renders a 16-byte identifier as a canonical UUID and anything else as hex.
func FormatUUID(raw []byte) string {
	if len(raw) == 16 {
		if id, err := uuid.FromBytes(raw); err == nil {
			return id.String()
		}
	}
	return hex.EncodeToString(raw)
}
