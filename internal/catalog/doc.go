// Package catalog resolves companies, media content, and advertising records
// from SQLite.
//
// Content carries a closed type tag (movie, music, game) that maps
// exhaustively onto archive group directories; code that varies by type
// switches on the tag rather than comparing free-form strings. The Repository
// interface is the narrow surface the packaging pipeline consumes; the Store
// implements it with parameterized queries only.
package catalog
