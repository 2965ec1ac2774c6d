// Package memory implements the durable preference store consulted and
// updated by the agent.
//
// A preference profile is plain text addressed by a namespace (a tuple
// of strings such as "email_assistant/triage_preferences"). Profiles
// are seeded lazily on first read and updated through Merge, which
// distills feedback messages into targeted additions while preserving
// all unrelated content. A failed distillation never touches the stored
// profile.
//
// Two backings are provided: a SQLite store for production and an
// in-memory store for tests. Merge serializes per namespace so
// concurrent runs never distill against a stale snapshot.
package memory
