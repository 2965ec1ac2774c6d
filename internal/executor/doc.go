// Package executor implements the agent's tool side effects against
// the real Gmail and Calendar clients.
package executor
