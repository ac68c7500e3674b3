// Package record encodes and decodes fixed-size package index records.
//
// A record is a NUL-padded name followed by an optional reserved field and
// two little-endian uint32 values: the payload offset and the payload length.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meigma/mad/core/internal/madtype"
)

// Layout describes the shape of one index record.
type Layout struct {
	// NameSize is the width of the NUL-padded name field in bytes.
	NameSize int

	// ReservedSize is the width of the zero field that follows the name.
	// Only 0 and 4 are supported.
	ReservedSize int
}

// Built-in layouts. Both produce 24-byte records.
var (
	// Standard is the 16-byte-name layout read by the package loader.
	Standard = Layout{NameSize: 16}

	// Reserved is the 12-byte-name layout with a 4-byte zero field used by
	// the terrain extractor.
	Reserved = Layout{NameSize: 12, ReservedSize: 4}
)

// Size returns the encoded size of one record.
func (l Layout) Size() int {
	return l.NameSize + l.ReservedSize + 8
}

// Validate reports whether the layout can be encoded.
func (l Layout) Validate() error {
	if l.NameSize <= 0 {
		return fmt.Errorf("record layout: name size %d must be positive", l.NameSize)
	}
	if l.ReservedSize != 0 && l.ReservedSize != 4 {
		return fmt.Errorf("record layout: reserved size %d must be 0 or 4", l.ReservedSize)
	}
	return nil
}

// String returns a short description such as "name16" or "name12+reserved4".
func (l Layout) String() string {
	if l.ReservedSize == 0 {
		return fmt.Sprintf("name%d", l.NameSize)
	}
	return fmt.Sprintf("name%d+reserved%d", l.NameSize, l.ReservedSize)
}

// Record is one decoded index record.
type Record struct {
	// Name holds the raw name field including any NUL padding.
	Name []byte

	// Reserved holds the reserved field, zero in well-formed packages.
	Reserved uint32

	Offset uint32
	Length uint32
}

// TrimmedName returns the name up to the first NUL byte.
func (r Record) TrimmedName() string {
	return TrimName(r.Name)
}

// End returns Offset+Length computed in 64 bits.
func (r Record) End() uint64 {
	return uint64(r.Offset) + uint64(r.Length)
}

// Decode parses buf, which must be exactly l.Size() bytes.
// The returned Name aliases buf.
func Decode(l Layout, buf []byte) (Record, error) {
	if len(buf) != l.Size() {
		return Record{}, fmt.Errorf("%w: record is %d bytes, want %d", madtype.ErrUnexpectedEOF, len(buf), l.Size())
	}
	var r Record
	r.Name = buf[:l.NameSize]
	pos := l.NameSize
	if l.ReservedSize == 4 {
		r.Reserved = binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4
	}
	r.Offset = binary.LittleEndian.Uint32(buf[pos : pos+4])
	r.Length = binary.LittleEndian.Uint32(buf[pos+4 : pos+8])
	return r, nil
}

// Encode writes r into buf, which must be exactly l.Size() bytes.
// The name is NUL-padded; names longer than l.NameSize fail with madtype.ErrNameTooLong.
func Encode(l Layout, r Record, buf []byte) error {
	if len(buf) != l.Size() {
		return fmt.Errorf("record buffer is %d bytes, want %d", len(buf), l.Size())
	}
	if len(r.Name) > l.NameSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", madtype.ErrNameTooLong, r.Name, len(r.Name), l.NameSize)
	}
	clear(buf)
	copy(buf[:l.NameSize], r.Name)
	pos := l.NameSize
	if l.ReservedSize == 4 {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], r.Reserved)
		pos += 4
	}
	binary.LittleEndian.PutUint32(buf[pos:pos+4], r.Offset)
	binary.LittleEndian.PutUint32(buf[pos+4:pos+8], r.Length)
	return nil
}

// ValidName reports whether every byte of raw is printable ASCII or NUL.
// Anything else means the reader has walked into payload bytes.
func ValidName(raw []byte) bool {
	for _, b := range raw {
		if b != 0 && !printable(b) {
			return false
		}
	}
	return true
}

// TrimName returns raw up to the first NUL byte.
func TrimName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		return string(raw[:i])
	}
	return string(raw)
}

// MaxName returns the longest name CheckName accepts under l. Without a
// reserved field the last name byte is kept for the terminating NUL, which
// the package loader forces there; with one, the zero reserved field
// terminates a full-width name.
func (l Layout) MaxName() int {
	if l.ReservedSize > 0 {
		return l.NameSize
	}
	return l.NameSize - 1
}

// CheckName validates a name for writing under layout l: non-empty,
// printable ASCII and at most l.MaxName() bytes.
func CheckName(l Layout, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", madtype.ErrInvalidName)
	}
	if len(name) > l.MaxName() {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", madtype.ErrNameTooLong, name, len(name), l.MaxName())
	}
	return checkBytes(name)
}

// CheckStoredName validates a name taken from a loaded package for writing
// back unchanged. Anything a load accepts passes: empty names and names
// filling the whole field.
func CheckStoredName(l Layout, name string) error {
	if len(name) > l.NameSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", madtype.ErrNameTooLong, name, len(name), l.NameSize)
	}
	return checkBytes(name)
}

func checkBytes(name string) error {
	for i := 0; i < len(name); i++ {
		if !printable(name[i]) {
			return fmt.Errorf("%w: %q has byte 0x%02x at %d", madtype.ErrInvalidName, name, name[i], i)
		}
	}
	return nil
}

func printable(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}
