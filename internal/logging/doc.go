// Package logging provides structured logging utilities for the inboxagent application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithRun(slog.Default(), runID)
//	logger.Info("triage decided",
//	    logging.Classification("respond"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("email ingested",
//	    logging.UserHash(rec.Author))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Email addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
