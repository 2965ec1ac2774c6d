// Package runstore persists run checkpoints in SQLite so suspended
// runs survive process restarts.
//
// The store implements agent.Checkpointer. Runs are stored as one row
// per run with the full state serialized as JSON; the status column is
// duplicated out of the JSON so operational queries don't have to
// parse it.
package runstore
