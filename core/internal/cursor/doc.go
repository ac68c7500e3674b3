// Package cursor provides the byte-level reader every package parser uses.
//
// A Cursor wraps a random-access Source with a current offset so records can
// be read sequentially from the start of a package, while entry payloads are
// reached by seeking. Reads either return exactly the requested number of
// bytes or fail with madtype.ErrUnexpectedEOF.
package cursor
