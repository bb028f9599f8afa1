// Package session provides durable persistence for core.Session records
// behind a single Store contract with interchangeable backends: a file store
// writing one JSON document per session via atomic replace, a SQLite store
// keeping one row per session updated inside a transaction, and a volatile
// in-memory store for tests and demos.
//
// All backends share identical semantics: Update is atomic (callers never
// observe a record mixing fields from two update calls), writes to the same
// session id are serialized through per-key locks while unrelated sessions
// proceed without contention, and bounding of the run history to the most
// recent HistoryLimit entries happens inside Update, never in callers.
package session
