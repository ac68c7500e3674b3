// Package index infers and reads the index table at the start of a package.
//
// Packages store no entry count. The table ends where the lowest payload
// offset begins, so the engine reads records one at a time, validating each,
// and shrinks its upper bound on the table size every time it sees a lower
// payload offset. A second pass re-reads exactly the records that passed.
package index
