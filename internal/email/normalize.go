package email

// Normalize maps a raw email representation into a canonical Record.
//
// Schema detection is by key presence: the standard schema first
// (author + email_thread), then the Gmail schema (from_email +
// page_content). Unrecognized shapes fall back to per-field
// substitution, preferring whichever equivalent key is present and
// using placeholders otherwise. Normalize is pure and never fails;
// non-string values are treated as absent.
func Normalize(raw map[string]any) Record {
	if hasString(raw, "author") && hasString(raw, "email_thread") {
		return Record{
			Author:    stringField(raw, "author"),
			Recipient: stringField(raw, "to"),
			Subject:   stringField(raw, "subject"),
			Body:      stringField(raw, "email_thread"),
		}
	}

	if hasString(raw, "from_email") && hasString(raw, "page_content") {
		return Record{
			Author:    stringField(raw, "from_email"),
			Recipient: stringField(raw, "to_email"),
			Subject:   stringField(raw, "subject"),
			Body:      stringField(raw, "page_content"),
		}
	}

	return Record{
		Author:    firstString(raw, []string{"author", "from_email"}, PlaceholderAuthor),
		Recipient: firstString(raw, []string{"to", "to_email"}, PlaceholderRecipient),
		Subject:   firstString(raw, []string{"subject"}, PlaceholderSubject),
		Body:      firstString(raw, []string{"email_thread", "page_content", "content"}, PlaceholderBody),
	}
}

func hasString(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

func firstString(raw map[string]any, keys []string, fallback string) string {
	for _, key := range keys {
		if hasString(raw, key) {
			return stringField(raw, key)
		}
	}
	return fallback
}
