// Package email normalizes heterogeneous inbound email representations
// into one canonical record and renders records for prompts and review
// descriptions.
//
// Two raw schemas are recognized by key presence: the standard schema
// (author, to, subject, email_thread) and the Gmail schema (from_email,
// to_email, subject, page_content). Anything else is handled by
// best-effort field substitution with placeholder values, so
// normalization never fails.
//
// Example usage:
//
//	rec := email.Normalize(map[string]any{
//	    "author":       "Alice Smith <alice.smith@company.com>",
//	    "to":           "Lance Martin <lance@company.com>",
//	    "subject":      "Quick question about API documentation",
//	    "email_thread": "Hi Lance, ...",
//	})
//	fmt.Println(email.Markdown(rec))
package email
