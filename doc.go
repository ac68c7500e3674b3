// Package mad unpacks trees of MAD/MTD packages.
//
// This package provides the batch layer: it scans directories for packages,
// unpacks each one into a directory named after it, and records the entry
// order in a manifest so the package can be rebuilt later. For single-package
// reading and writing, use the [core] subpackage.
//
// # Quick Start
//
// Unpack everything under the default roots:
//
//	u := mad.NewUnpacker(mad.WithLogger(slog.Default()))
//	summary, err := u.UnpackTree(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(summary.Stats.Extracted, "files extracted")
//
// Unpack one package:
//
//	report, err := u.UnpackFile(ctx, "Chars/pig.mad")
//
// Packages are unpacked in parallel across packages; entries within one
// package are extracted in their on-disk order.
//
// [core]: https://pkg.go.dev/github.com/meigma/mad/core
package mad
