// Package baseline stores captures by revision and finds the next pair to
// compare.
//
// Two stores implement Store:
//   - SQLite keeps captures, the comparison cursor and run history in one
//     database file (modernc.org/sqlite, WAL mode).
//   - Files reads and writes the plain directory layout produced by capture
//     scripts, with revision history in commit_cache.json.
//
// The comparison cursor is an explicit State value. NextPair takes it and
// the caller decides when to persist the advanced one.
package baseline
