package gmail

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// InboundEmail is one actionable message pulled from the inbox.
//
// UserReplied marks threads whose newest message was sent by the user
// themselves; such entries carry only the IDs and must not be turned
// into runs.
type InboundEmail struct {
	From      string
	To        string
	Subject   string
	Body      string
	MessageID string
	ThreadID  string
	SendTime  time.Time

	UserReplied bool
}

// Raw returns the email as a raw map for the triage workflow, using
// the from_email/to_email/subject/page_content key set.
func (e InboundEmail) Raw() map[string]any {
	return map[string]any{
		"from_email":   e.From,
		"to_email":     e.To,
		"subject":      e.Subject,
		"page_content": e.Body,
		"id":           e.MessageID,
		"thread_id":    e.ThreadID,
		"send_time":    e.SendTime.Format(time.RFC3339),
	}
}

// RunID derives a stable run identifier from a Gmail thread ID.
// Re-ingesting the same thread always produces the same ID, which
// makes ingestion idempotent.
func RunID(threadID string) string {
	sum := sha256.Sum256([]byte(threadID))
	return "gmail-" + hex.EncodeToString(sum[:8])
}
