// Package packaging persists package records in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema migrations, progress and
// heartbeat tracking, company claims, and the status transition table that
// mirrors the public package lifecycle: generando is the initial state, the
// bundling job moves it to listo, error, or cancelado, and orchestrator
// operations drive the deployed states (descargado, instalado, vencido).
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses, update the transition table and the migrations
// together.
package packaging
