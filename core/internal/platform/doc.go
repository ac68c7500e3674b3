// Package platform opens files inside an os.Root without following
// symbolic links.
package platform

import (
	"errors"
	"io/fs"
	"os"
)

// ErrSymlink is returned when the named file is a symbolic link.
var ErrSymlink = errors.New("mad: symbolic link")

// ErrNotRegular is returned when the named file is not a regular file.
var ErrNotRegular = errors.New("mad: not a regular file")

// OpenRegular opens name for reading and checks that it is a regular file.
// Symbolic links fail with ErrSymlink, anything else that is not a regular
// file with ErrNotRegular.
//
// os.Root follows links that stay inside the root even with O_NOFOLLOW, so
// the name is checked with Lstat and the opened file must be the one checked.
func OpenRegular(root *os.Root, name string) (*os.File, fs.FileInfo, error) {
	checked, err := root.Lstat(name)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case checked.Mode().Type() == fs.ModeSymlink:
		return nil, nil, ErrSymlink
	case !checked.Mode().IsRegular():
		return nil, nil, ErrNotRegular
	}

	f, err := root.Open(name)
	if err != nil {
		return nil, nil, err
	}
	opened, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // the stat error is reported
		return nil, nil, err
	}
	if !os.SameFile(checked, opened) {
		_ = f.Close() //nolint:errcheck // replaced between Lstat and Open
		return nil, nil, ErrSymlink
	}
	return f, opened, nil
}
