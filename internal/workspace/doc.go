// Package workspace manages on-disk directories used by archive jobs.
//
// Ephemeral mode creates a timestamped directory (e.g. dotrewrite-20260114-122336)
// for one-shot CLI runs and removes it completely on Cleanup.
//
// Persistent mode uses a fixed data directory holding a jobs/ tree (one
// subdirectory per job, containing the produced archive) and an uploads/
// directory used to spool request bodies before they are read.
package workspace
