// Package pipeline drives one archive through decoding, rewriting and
// re-encoding.
//
// A run walks the input entries in order. Files are read fully into memory,
// rewritten and appended; directories are drained and declared. The output
// is finalized only after the input is exhausted, and any failure aborts the
// run without finalizing, returning a single classified error.
package pipeline
