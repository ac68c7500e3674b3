package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/mad/core/internal/madtype"
)

const defaultFileMode fs.FileMode = 0o644

// FileSink writes entries into a destination directory.
//
// By default each entry is written to a temporary file beside its final
// path and renamed on Commit, so a failed copy never leaves a truncated file
// where a later run would mistake it for a finished one.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
	mode        fs.FileMode
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite replaces files that already exist.
// By default, existing files are skipped and reported as already present.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// WithFileMode sets the permission bits of extracted files. Defaults to 0644.
func WithFileMode(mode fs.FileMode) FileSinkOption {
	return func(s *FileSink) {
		s.mode = mode.Perm()
	}
}

// NewFileSink creates a FileSink that writes to destDir.
//
// destDir is created on first write if it does not exist.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir: destDir,
		mode:    defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the destination directory.
func (s *FileSink) Dir() string {
	return s.destDir
}

// Exists reports whether a file is already present at the entry's path.
// With overwrite enabled it always reports false. Names that cannot be
// mapped to a path inside the destination report false so that Writer can
// reject them with a descriptive error.
func (s *FileSink) Exists(entry *Entry) bool {
	if s.overwrite || !localName(entry.Name) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.destDir, filepath.FromSlash(entry.Name)))
	return err == nil
}

// Writer returns a Committer for the entry's final path.
func (s *FileSink) Writer(entry *Entry) (Committer, error) {
	if !localName(entry.Name) {
		return nil, &fs.PathError{Op: "extract", Path: entry.Name, Err: fs.ErrInvalid}
	}
	if err := os.MkdirAll(s.destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", s.destDir, err)
	}
	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", s.destDir, err)
	}

	c := &rootCommitter{
		root:      root,
		final:     filepath.FromSlash(entry.Name),
		mode:      s.mode,
		overwrite: s.overwrite,
	}
	if err := c.open(s.directWrite); err != nil {
		_ = root.Close() //nolint:errcheck // the open error is reported
		return nil, fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return c, nil
}

// rootCommitter writes one entry through an os.Root. When staged is set the
// bytes go to a hidden file in the same directory that Commit renames over
// final; otherwise they go to final directly.
type rootCommitter struct {
	root      *os.Root
	file      *os.File
	final     string
	written   string
	mode      fs.FileMode
	staged    bool
	overwrite bool
}

// occupied returns an error wrapping madtype.ErrAlreadyExists when final is
// present and overwrite is off.
func (c *rootCommitter) occupied() error {
	if c.overwrite {
		return nil
	}
	if _, err := c.root.Lstat(c.final); err == nil {
		return fmt.Errorf("%w: %s", madtype.ErrAlreadyExists, c.final)
	}
	return nil
}

func (c *rootCommitter) open(direct bool) error {
	if dir := filepath.Dir(c.final); dir != "." {
		if err := c.root.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	if err := c.occupied(); err != nil {
		return err
	}
	if direct {
		flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if !c.overwrite {
			flag = os.O_CREATE | os.O_WRONLY | os.O_EXCL
		}
		f, err := c.root.OpenFile(c.final, flag, c.mode)
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", madtype.ErrAlreadyExists, c.final)
		}
		if err != nil {
			return err
		}
		c.file, c.written = f, c.final
		return nil
	}
	for range 10 {
		name := filepath.Join(filepath.Dir(c.final), stagingPrefix+randomSuffix())
		f, err := c.root.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		switch {
		case err == nil:
			c.file, c.written, c.staged = f, name, true
			return nil
		case !errors.Is(err, fs.ErrExist):
			return err
		}
	}
	return errors.New("no free staging name")
}

func (c *rootCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file and, when staged, sets its mode and renames it
// into place. On failure the partial file is removed.
func (c *rootCommitter) Commit() error {
	err := c.file.Close()
	if err == nil && c.staged {
		err = c.occupied()
	}
	if err == nil && c.staged {
		err = c.root.Chmod(c.written, c.mode)
		if err == nil {
			err = c.root.Rename(c.written, c.final)
		}
	}
	if err != nil {
		_ = c.root.Remove(c.written) //nolint:errcheck // the commit error is reported
		_ = c.root.Close()           //nolint:errcheck // the commit error is reported
		return fmt.Errorf("commit %s: %w", c.final, err)
	}
	return c.root.Close()
}

// Discard closes and removes whatever was written.
func (c *rootCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // the file is being removed
	return errors.Join(c.root.Remove(c.written), c.root.Close())
}

// stagingPrefix marks in-progress files; CollectDir skips names with it.
const stagingPrefix = ".mad-"

// localName reports whether name names a file inside the destination.
func localName(name string) bool {
	return name != "." && fs.ValidPath(name)
}

func randomSuffix() string {
	var b [8]byte
	_, _ = rand.Read(b[:]) //nolint:errcheck // crypto/rand.Read never fails
	return hex.EncodeToString(b[:])
}
