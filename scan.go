package mad

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// DefaultRoots are the directories UnpackTree scans when given none.
var DefaultRoots = []string{"Chars", "Maps"}

// DefaultExtensions are the package extensions Scan matches when given none.
var DefaultExtensions = []string{".mad", ".mtd"}

// Scan lazily walks root and yields the path of every regular file whose
// extension matches one of exts, compared case-insensitively.
//
// Walk errors (an unreadable directory, a missing root) are yielded with an
// empty path and the walk continues. Cancelling ctx yields ctx.Err() once
// and stops. Stopping the iteration early stops the walk.
func Scan(ctx context.Context, root string, exts ...string) iter.Seq2[string, error] {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return filepath.SkipAll
			}
			if err != nil {
				if !yield("", err) {
					return filepath.SkipAll
				}
				return nil
			}
			if !d.Type().IsRegular() || !matchExt(path, exts) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func matchExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
