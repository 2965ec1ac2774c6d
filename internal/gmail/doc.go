// Package gmail ingests inbox threads and sends replies through the
// Gmail API.
//
// FetchSince retrieves messages involving the configured address and
// reduces each thread to at most one actionable email: the newest
// message, and only if someone other than the user sent it. Threads
// the user already answered come back flagged so ingestion can skip
// them without starting a run.
package gmail
