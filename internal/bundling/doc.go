// Package bundling executes package generation jobs off the request path.
//
// A Job owns one package from claim to terminal status: it resolves the
// requested contents, streams them into the archive with genuine per-file
// progress, and finalizes with the temp-then-rename pattern. While the job
// runs, a monitor goroutine refreshes the package heartbeat and the company
// claim, and polls for cancellation requests. Job failures are recorded on
// the package row and surface only through progress polling; the original
// caller has long since returned.
package bundling
