// Package fault defines the typed error values shared by the packaging and
// provisioning components.
//
// Each error kind carries enough structure for callers to react without
// parsing messages: validation failures list every violated field at once,
// state errors name the rejected transition, and not-found errors identify
// the missing record. Helpers wrap errors.As/errors.Is so call sites stay
// terse.
//
// Errors raised inside an asynchronous bundling job are never returned to the
// original caller; they are folded into the job's terminal state and surfaced
// through progress polling.
package fault
