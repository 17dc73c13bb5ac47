package keybag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

var (
	keybagUUID = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	item1UUID  = bytes.Repeat([]byte{0xA1}, 16)
	item2UUID  = bytes.Repeat([]byte{0xA2}, 16)
)

func wrapped(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, 40)
}

// createTestKeybag builds a keybag laid out the way backup keybags are: keybag-level records, then
// one UUID/CLAS/WRAP/KTYP/WPKY group per class key.
func createTestKeybag() *Builder {
	return NewBuilder().
		AddUint32("VERS", 4).
		AddUint32("TYPE", 1).
		Add("UUID", keybagUUID).
		Add("HMCK", bytes.Repeat([]byte{0xEE}, 40)).
		AddUint32("WRAP", 0).
		Add("SALT", []byte("salt-salt-salt-salt!")).
		AddUint32("ITER", 10).
		AddUint32("DPWT", 1).
		AddUint32("DPIC", 1000).
		Add("DPSL", []byte("dpsl-dpsl-dpsl-dpsl!")).
		Add("UUID", item1UUID).
		AddUint32("CLAS", 1).
		AddUint32("WRAP", 0).
		AddUint32("KTYP", 0).
		Add("WPKY", wrapped(0x11)).
		Add("UUID", item2UUID).
		AddUint32("CLAS", 3).
		AddUint32("WRAP", 0).
		AddUint32("KTYP", 0).
		Add("WPKY", wrapped(0x33))
}

func TestParse_KeybagLevelRecords(t *testing.T) {
	kb := Parse(createTestKeybag().Bytes())

	assert.Equal(t, uint32(4), kb.Version)
	assert.Equal(t, uint32(1), kb.Type)
	assert.Equal(t, keybagUUID, kb.UUID)
	assert.Equal(t, []byte("salt-salt-salt-salt!"), kb.Salt)
	assert.Equal(t, uint32(10), kb.Iter)
	assert.Equal(t, uint32(1000), kb.DPIC)
	assert.Equal(t, uint32(1), kb.DPWT)
	assert.Equal(t, []byte("dpsl-dpsl-dpsl-dpsl!"), kb.DPSL)

	for _, tag := range []types.KeybagTag{types.TagUUID, types.TagSalt, types.TagIter, types.TagDPIC, types.TagDPSL, types.TagDPWT} {
		assert.True(t, kb.Has(tag), tag.String())
	}
}

func TestParse_ClassKeys(t *testing.T) {
	kb := Parse(createTestKeybag().Bytes())

	require.Len(t, kb.ClassKeys, 2)
	assert.Equal(t, []uint32{1, 3}, kb.ClassIDs())

	ck1 := kb.ClassKeys[1]
	assert.Equal(t, uint32(1), ck1.Class)
	assert.Equal(t, wrapped(0x11), ck1.WrappedKey)
	assert.Equal(t, item1UUID, ck1.UUID)
	assert.False(t, ck1.IsAsymmetric())

	ck3 := kb.ClassKeys[3]
	assert.Equal(t, wrapped(0x33), ck3.WrappedKey)
	assert.Equal(t, item2UUID, ck3.UUID)
}

func TestParse_ItemWithoutWrappedKeyIsDiscarded(t *testing.T) {
	data := NewBuilder().
		Add("UUID", keybagUUID).
		AddUint32("CLAS", 1).
		AddUint32("WRAP", 0).
		AddUint32("CLAS", 2).
		Add("WPKY", wrapped(0x22)).
		AddUint32("CLAS", 5).
		AddUint32("KTYP", 1).
		Bytes()

	kb := Parse(data)

	require.Len(t, kb.ClassKeys, 1)
	assert.Contains(t, kb.ClassKeys, uint32(2))
}

func TestParse_AsymmetricWrapIsRecorded(t *testing.T) {
	data := NewBuilder().
		AddUint32("CLAS", 2).
		AddUint32("WRAP", types.WrapAsymmetric).
		Add("WPKY", wrapped(0x22)).
		AddUint32("CLAS", 3).
		AddUint32("WRAP", types.WrapPassword).
		Add("WPKY", wrapped(0x33)).
		Bytes()

	reader := NewKeybagReader(data)

	require.Len(t, reader.ListClassKeys(), 2)
	assert.True(t, reader.Keybag().ClassKeys[2].IsAsymmetric())
	assert.Equal(t, []uint32{3}, reader.PasswordWrappedClasses())
}

func TestParse_ItemLevelRecordsDoNotOverrideKeybag(t *testing.T) {
	data := NewBuilder().
		Add("SALT", []byte("keybag-salt")).
		AddUint32("ITER", 7).
		AddUint32("CLAS", 1).
		Add("SALT", []byte("item-salt")).
		AddUint32("ITER", 99).
		Add("WPKY", wrapped(0x11)).
		Bytes()

	kb := Parse(data)

	assert.Equal(t, []byte("keybag-salt"), kb.Salt)
	assert.Equal(t, uint32(7), kb.Iter)
	require.Contains(t, kb.ClassKeys, uint32(1))
	assert.Equal(t, []byte("item-salt"), kb.ClassKeys[1].Extra[types.TagSalt])
}

func TestParse_UnknownTagsAreSkipped(t *testing.T) {
	data := NewBuilder().
		Add("XXXX", []byte{1, 2, 3}).
		Add("salt", []byte("lowercase is not SALT")).
		AddUint32("CLAS", 4).
		Add("ZZZZ", nil).
		Add("WPKY", wrapped(0x44)).
		Bytes()

	kb := Parse(data)

	assert.False(t, kb.Has(types.TagSalt))
	require.Contains(t, kb.ClassKeys, uint32(4))
	assert.Equal(t, wrapped(0x44), kb.ClassKeys[4].WrappedKey)
}

func TestParse_Truncation(t *testing.T) {
	full := createTestKeybag()
	data := full.Bytes()

	// Offset of the second class key's WPKY value.
	prefix := createTestKeybag()
	secondWPKY := prefix.Len() - 40

	tests := []struct {
		name        string
		data        []byte
		wantClasses []uint32
	}{
		{"empty", nil, []uint32{}},
		{"mid header", data[:5], []uint32{}},
		{"cut inside second wrapped key", data[:secondWPKY+10], []uint32{1}},
		{"cut inside second wrapped key header", data[:secondWPKY-3], []uint32{1}},
		{"complete", data, []uint32{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kb *types.Keybag
			require.NotPanics(t, func() { kb = Parse(tt.data) })
			assert.Equal(t, tt.wantClasses, kb.ClassIDs())
		})
	}
}

func TestParse_LengthPastEndOfBuffer(t *testing.T) {
	data := NewBuilder().
		AddUint32("CLAS", 1).
		Add("WPKY", wrapped(0x11)).
		Bytes()

	// Append a header claiming far more data than remains.
	data = append(data, 'C', 'L', 'A', 'S', 0xFF, 0xFF, 0xFF, 0xFF, 0x00)

	var kb *types.Keybag
	require.NotPanics(t, func() { kb = Parse(data) })
	assert.Equal(t, []uint32{1}, kb.ClassIDs())
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	data := createTestKeybag().Bytes()
	kb := Parse(data)

	for i := range data {
		data[i] = 0
	}

	assert.Equal(t, keybagUUID, kb.UUID)
	assert.Equal(t, wrapped(0x11), kb.ClassKeys[1].WrappedKey)
}

func TestKeybagReader_UUID(t *testing.T) {
	reader := NewKeybagReader(createTestKeybag().Bytes())
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", reader.UUID())
	assert.Equal(t, uint32(1), reader.Type())

	assert.Equal(t, "abcd", FormatUUID([]byte{0xAB, 0xCD}))
}

func TestParseKeybagTag(t *testing.T) {
	assert.Equal(t, types.TagClass, types.ParseKeybagTag("CLAS"))
	assert.Equal(t, types.TagWrappedKey, types.ParseKeybagTag("WPKY"))
	assert.Equal(t, types.TagUnknown, types.ParseKeybagTag("clas"))
	assert.Equal(t, "DPSL", types.TagDPSL.String())
}
