package email

// Placeholder values substituted for fields that cannot be recovered
// from an unrecognized raw email shape.
const (
	PlaceholderAuthor    = "Unknown Sender"
	PlaceholderRecipient = "Unknown Recipient"
	PlaceholderSubject   = "No Subject"
	PlaceholderBody      = "No content available"
)

// Record is the canonical form of an inbound email. It is immutable
// once constructed; all downstream components (triage, response agent,
// review descriptions) read from it and never write back.
//
// The JSON field names follow the standard raw schema so a marshaled
// Record normalizes back to itself.
type Record struct {
	Author    string `json:"author"`
	Recipient string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"email_thread"`
}

// Raw returns the record as a standard-schema raw map. Feeding the
// result back through Normalize yields an identical record.
func (r Record) Raw() map[string]any {
	return map[string]any{
		"author":       r.Author,
		"to":           r.Recipient,
		"subject":      r.Subject,
		"email_thread": r.Body,
	}
}
