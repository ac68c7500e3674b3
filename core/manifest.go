package mad

import (
	_ "crypto/sha256" // registers digest.Canonical
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/mad/core/internal/fb"
)

// ManifestVersion is the manifest format version written by MarshalBinary.
const ManifestVersion = 1

// ManifestEntry records one package entry's position and content digest.
type ManifestEntry struct {
	Name   string
	Offset uint32
	Length uint32
	Digest digest.Digest
}

// Manifest records the entry order of an unpacked package so the package
// can be rebuilt with the same order, and the extracted files checked
// against the original content.
type Manifest struct {
	Version uint32
	Layout  Layout
	// Source is the path of the package the manifest was taken from.
	Source  string
	Entries []ManifestEntry
}

// NewManifest digests every entry of a. Payloads are streamed through
// section readers and are not added to the archive's cache.
func NewManifest(a *Archive) (*Manifest, error) {
	m := &Manifest{
		Version: ManifestVersion,
		Layout:  a.layout,
		Source:  a.path,
		Entries: make([]ManifestEntry, len(a.entries)),
	}
	for i, e := range a.entries {
		sec, _ := a.Section(i)
		d, err := digest.Canonical.FromReader(sec)
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", e.Name, err)
		}
		m.Entries[i] = ManifestEntry{Name: e.Name, Offset: e.Offset, Length: e.Length, Digest: d}
	}
	return m, nil
}

// MarshalBinary encodes the manifest as a FlatBuffers table.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	builder := flatbuffers.NewBuilder(1024)

	// Build entries in reverse order (FlatBuffers requirement)
	entryOffsets := make([]flatbuffers.UOffsetT, len(m.Entries))
	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := m.Entries[i]
		nameOffset := builder.CreateString(e.Name)
		digestOffset := builder.CreateString(e.Digest.String())

		fb.ManifestEntryStart(builder)
		fb.ManifestEntryAddName(builder, nameOffset)
		fb.ManifestEntryAddOffset(builder, e.Offset)
		fb.ManifestEntryAddLength(builder, e.Length)
		fb.ManifestEntryAddDigest(builder, digestOffset)
		entryOffsets[i] = fb.ManifestEntryEnd(builder)
	}

	fb.ManifestStartEntriesVector(builder, len(m.Entries))
	for i := len(entryOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(entryOffsets[i])
	}
	entriesOffset := builder.EndVector(len(m.Entries))
	sourceOffset := builder.CreateString(m.Source)

	fb.ManifestStart(builder)
	fb.ManifestAddVersion(builder, m.Version)
	fb.ManifestAddNameSize(builder, uint16(m.Layout.NameSize))         //nolint:gosec // layouts are small
	fb.ManifestAddReservedSize(builder, uint16(m.Layout.ReservedSize)) //nolint:gosec // layouts are small
	fb.ManifestAddSource(builder, sourceOffset)
	fb.ManifestAddEntries(builder, entriesOffset)
	root := fb.ManifestEnd(builder)

	fb.FinishManifestBuffer(builder, root)
	return builder.FinishedBytes(), nil
}

// ParseManifest decodes a manifest produced by MarshalBinary.
func ParseManifest(data []byte) (m *Manifest, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%w: %v", ErrInvalidManifest, r)
		}
	}()
	if len(data) < 8 || !fb.ManifestBufferHasIdentifier(data) {
		return nil, fmt.Errorf("%w: missing MADM identifier", ErrInvalidManifest)
	}

	root := fb.GetRootAsManifest(data, 0)
	m = &Manifest{
		Version: root.Version(),
		Layout:  Layout{NameSize: int(root.NameSize()), ReservedSize: int(root.ReservedSize())},
		Source:  string(root.Source()),
		Entries: make([]ManifestEntry, root.EntriesLength()),
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, m.Version)
	}
	if err := m.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var fe fb.ManifestEntry
	for i := range m.Entries {
		if !root.Entries(&fe, i) {
			return nil, fmt.Errorf("%w: entry %d missing", ErrInvalidManifest, i)
		}
		d := digest.Digest(fe.Digest())
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidManifest, i, err)
		}
		m.Entries[i] = ManifestEntry{
			Name:   string(fe.Name()),
			Offset: fe.Offset(),
			Length: fe.Length(),
			Digest: d,
		}
	}
	return m, nil
}

// ReadManifestFile reads and parses the manifest at path.
func ReadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes the encoded manifest to path atomically.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Verify checks data against the digest of the first entry named name.
func (m *Manifest) Verify(name string, data []byte) error {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return verifyDigest(m.Entries[i], data)
		}
	}
	return fmt.Errorf("manifest entry %q: %w", name, errNotInManifest)
}

var errNotInManifest = errors.New("not in manifest")

func verifyDigest(e ManifestEntry, data []byte) error {
	v := e.Digest.Verifier()
	if _, err := v.Write(data); err != nil {
		return err
	}
	if !v.Verified() {
		return fmt.Errorf("%w: %s: want %s", ErrDigestMismatch, e.Name, e.Digest)
	}
	return nil
}

// VerifyArchive checks that a has the manifest's entries in the same order,
// at the same positions, with matching content.
func (m *Manifest) VerifyArchive(a *Archive) error {
	if a.Len() != len(m.Entries) {
		return fmt.Errorf("%w: package has %d entries, manifest %d", ErrDigestMismatch, a.Len(), len(m.Entries))
	}
	var errs []error
	for i, want := range m.Entries {
		got := a.entries[i]
		if got.Name != want.Name || got.Offset != want.Offset || got.Length != want.Length {
			errs = append(errs, fmt.Errorf("%w: entry %d is %s@%d+%d, manifest has %s@%d+%d",
				ErrDigestMismatch, i, got.Name, got.Offset, got.Length, want.Name, want.Offset, want.Length))
			continue
		}
		sec, _ := a.Section(i)
		d, err := digest.Canonical.FromReader(sec)
		if err != nil {
			errs = append(errs, fmt.Errorf("digest %s: %w", got.Name, err))
			continue
		}
		if d != want.Digest {
			errs = append(errs, fmt.Errorf("%w: %s: got %s, want %s", ErrDigestMismatch, got.Name, d, want.Digest))
		}
	}
	return errors.Join(errs...)
}
