// Package metrics provides observability hooks for archive jobs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never check for nil:
//
//	svc := jobs.NewService(store, ws, p, jobs.WithRecorder(rec))
//
// When monitoring.metrics.enabled is set the serve command swaps in a
// PrometheusRecorder backed by its own registry and mounts HTTPHandler for
// that registry at monitoring.metrics.path.
package metrics
