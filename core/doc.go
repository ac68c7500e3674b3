//go:generate flatc --go --go-namespace fb -o internal schema/manifest.fbs

// Package mad reads and writes MAD/MTD packages.
//
// A package is a table of fixed-size index records followed by the
// concatenated payloads the records point at:
//
//	[record 0]...[record N-1][payload 0]...[payload N-1]
//
// The table carries no entry count. Readers infer it from the lowest payload
// offset seen while scanning records, since the table can never extend into
// payload data. Entry order is significant: consumers address entries by
// position, so every operation here preserves it.
//
// Archive implements fs.FS and fs.ReadFileFS over the entries of a package
// for compatibility with the standard library.
package mad
