// Package jobs runs archive transformations as addressable jobs.
//
// Submit transforms one uploaded archive into a per-job directory and
// registers the result; Retrieve claims it for a single download. Artifacts
// that are never downloaded are removed by Sweep.
package jobs
