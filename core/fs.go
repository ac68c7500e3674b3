package mad

import (
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Open implements fs.FS.
//
// Packages are flat: "." is the only directory and lists every entry whose
// name is a valid single path element. Duplicate names open the first entry.
// The returned file reads through an independent section reader and does
// not populate the payload cache.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &rootDir{entries: a.dirEntries()}, nil
	}
	i, ok := a.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	sec, _ := a.Section(i)
	return &entryFile{SectionReader: sec, info: entryInfo{e: a.entries[i]}}, nil
}

// Stat implements fs.StatFS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return rootInfo{}, nil
	}
	i, ok := a.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return entryInfo{e: a.entries[i]}, nil
}

// ReadDir implements fs.ReadDirFS. Only "." exists.
// Entries are sorted by name as fs.ReadDirFS requires; use Entries for
// on-disk order.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	out := a.dirEntries()
	slices.SortFunc(out, func(x, y fs.DirEntry) int { return strings.Compare(x.Name(), y.Name()) })
	return out, nil
}

// dirEntries lists the entries reachable by name, in on-disk order.
func (a *Archive) dirEntries() []fs.DirEntry {
	out := make([]fs.DirEntry, 0, len(a.entries))
	for i, e := range a.entries {
		if a.byName[e.Name] != i || strings.Contains(e.Name, "/") || !fs.ValidPath(e.Name) || e.Name == "." {
			continue
		}
		out = append(out, fs.FileInfoToDirEntry(entryInfo{e: e}))
	}
	return out
}

// entryFile is an open package entry.
type entryFile struct {
	*io.SectionReader
	info entryInfo
}

func (f *entryFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *entryFile) Close() error               { return nil }

// entryInfo implements fs.FileInfo for a package entry.
type entryInfo struct {
	e Entry
}

func (i entryInfo) Name() string       { return i.e.Name }
func (i entryInfo) Size() int64        { return int64(i.e.Length) }
func (i entryInfo) Mode() fs.FileMode  { return 0o444 }
func (i entryInfo) ModTime() time.Time { return time.Time{} }
func (i entryInfo) IsDir() bool        { return false }
func (i entryInfo) Sys() any           { return i.e }

// rootInfo implements fs.FileInfo for the package root.
type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }

// rootDir implements fs.ReadDirFile for ".".
type rootDir struct {
	entries []fs.DirEntry
	pos     int
}

func (d *rootDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *rootDir) Stat() (fs.FileInfo, error) { return rootInfo{}, nil }
func (d *rootDir) Close() error               { return nil }

func (d *rootDir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.pos += n
	return rest[:n], nil
}
