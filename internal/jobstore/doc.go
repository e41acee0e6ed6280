// Package jobstore is the SQLite registry of produced artifacts.
//
// Each artifact row moves from ready to serving when a download claims it;
// the claim is a single conditional UPDATE so at most one retrieval wins.
// A completed download deletes the row, an aborted one returns it to ready.
// A job_events table keeps a short history per job (submitted, completed,
// failed, downloaded, expired).
package jobstore
