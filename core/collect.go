package mad

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/meigma/mad/core/internal/platform"
	"github.com/meigma/mad/core/internal/sizing"
)

// ErrSymlink is returned when CollectDir meets a symbolic link.
var ErrSymlink = platform.ErrSymlink

// CollectDir reads the files of an unpacked package back as build input.
//
// With a manifest, entries come back in manifest order and each file is
// checked against its recorded digest (ErrDigestMismatch). Without one,
// every regular file directly inside dir is returned in name order; temp
// files left by an interrupted extraction are ignored. Symbolic links are
// rejected in both cases.
func CollectDir(dir string, m *Manifest) ([]BuildEntry, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer root.Close()

	if m != nil {
		return collectManifest(root, m)
	}

	dirents, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return nil, err
	}
	var out []BuildEntry
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".mad-") || d.IsDir() {
			continue
		}
		data, err := readRootFile(root, name)
		if err != nil {
			return nil, err
		}
		out = append(out, BuildEntry{Name: name, Data: data})
	}
	slices.SortFunc(out, func(a, b BuildEntry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func collectManifest(root *os.Root, m *Manifest) ([]BuildEntry, error) {
	out := make([]BuildEntry, len(m.Entries))
	for i, e := range m.Entries {
		data, err := readRootFile(root, e.Name)
		if err != nil {
			return nil, err
		}
		if err := verifyDigest(e, data); err != nil {
			return nil, err
		}
		out[i] = BuildEntry{Name: e.Name, Data: data}
	}
	return out, nil
}

func readRootFile(root *os.Root, name string) ([]byte, error) {
	f, _, err := platform.OpenRegular(root, name)
	if err != nil {
		return nil, &fs.PathError{Op: "collect", Path: name, Err: err}
	}
	defer f.Close()

	data, err := sizing.ReadAllWithLimit(f, sizing.MaxArchiveSize, ErrSizeOverflow)
	if err != nil {
		return nil, &fs.PathError{Op: "collect", Path: name, Err: err}
	}
	return data, nil
}
