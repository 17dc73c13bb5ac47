package keybag

import (
	"bytes"
	"encoding/binary"
)

// Builder writes keybag records in the tag-length-value encoding read by Parse.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder returns an empty keybag builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a record. Tags shorter or longer than four bytes are padded or truncated.
func (b *Builder) Add(tag string, value []byte) *Builder {
	var header [8]byte
	copy(header[:4], []byte(tag+"    ")[:4])
	binary.BigEndian.PutUint32(header[4:], uint32(len(value)))
	b.buf.Write(header[:])
	b.buf.Write(value)
	return b
}

// AddUint32 appends a record holding a big-endian 32-bit integer
func (b *Builder) AddUint32(tag string, value uint32) *Builder {
	var v [4]byte
	binary.BigEndian.PutUint32(v[:], value)
	return b.Add(tag, v[:])
}

// Bytes returns the encoded keybag
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Len returns the encoded size so far
func (b *Builder) Len() int {
	return b.buf.Len()
}
