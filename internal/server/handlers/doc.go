// Package handlers contains HTTP handlers for the dotrewrite HTTP API.
//
// JobHandlers accept archive uploads, serve each produced archive once and
// expose job history. MonitoringHandlers serve health and readiness probes.
// Errors are classified with foundation/errors and rendered by its
// HTTPErrorAdapter.
package handlers
