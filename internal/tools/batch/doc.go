// Package batch provides helpers for tools that operate on one or
// many runs in a single call.
//
// This package includes helpers for:
//   - Parsing parameters that accept both a single run ID and an array
//   - Formatting per-run results in a consistent structure
//   - Handling partial failures without aborting the whole batch
package batch
