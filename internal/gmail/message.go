package gmail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// HeaderValue extracts a header value from a Gmail message.
// Header names are case-insensitive per RFC 2822.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	return payloadHeader(m.Payload, header)
}

func payloadHeader(p *gmail.MessagePart, header string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// extractBody pulls the readable text out of a message payload.
// Leaf parts carry base64url data; multipart containers are walked
// recursively and their text joined.
func extractBody(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if p.Body != nil && p.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(p.Body.Data)
		if err != nil {
			// Gmail also emits unpadded base64url.
			decoded, err = base64.RawURLEncoding.DecodeString(p.Body.Data)
			if err != nil {
				return ""
			}
		}
		return string(decoded)
	}
	var parts []string
	for _, part := range p.Parts {
		if content := extractBody(part); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n")
}

// replySubject prefixes "Re: " unless the subject already carries it.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// addressedBy reports whether an address book header (for example
// "Alice Smith <alice@example.com>") refers to the given address.
func addressedBy(header, address string) bool {
	return address != "" && strings.Contains(strings.ToLower(header), strings.ToLower(address))
}
