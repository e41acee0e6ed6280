// Package errors classifies failures so the HTTP server and the CLI can
// present them consistently.
//
// A ClassifiedError carries a category (which picks the HTTP status and exit
// code), a severity (which picks the log level), a retry hint and a
// client-safe message. Causes and context values only ever reach the logs.
//
//	err := errors.InputStreamError("input is not a readable archive").
//		WithContext("entry", name).
//		WithCause(readErr).
//		Build()
//
// Callers usually import it as derrors to keep the standard errors package
// available.
package errors
