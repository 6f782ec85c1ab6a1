// Package orchestrator is the synchronous front door of the package
// pipeline.
//
// Generate validates a request in full, claims the company, creates the
// package row, and hands off to a bundling job on its own goroutine; the
// caller gets the package id immediately and observes the job through
// Progress polling. The remaining operations (Download, Delete, UpdateStatus,
// Cancel) guard the lifecycle state machine and reject anything the current
// status does not permit.
package orchestrator
