package email

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Markdown renders a record as the markdown block shown in review
// descriptions and prepended to response prompts.
func Markdown(r Record) string {
	return fmt.Sprintf(`

**Subject**: %s
**From**: %s
**To**: %s

%s

---
`, r.Subject, r.Author, r.Recipient, r.Body)
}

// FormatToolCall renders a proposed tool call for human review. Email
// drafts, calendar invites and questions get dedicated layouts; any
// other tool falls back to a generic dump of its arguments.
func FormatToolCall(name string, args map[string]any) string {
	switch name {
	case "write_email":
		return fmt.Sprintf(`# Email Draft

**To**: %s
**Subject**: %s

%s
`, stringField(args, "to"), stringField(args, "subject"), stringField(args, "content"))
	case "schedule_meeting":
		return fmt.Sprintf(`# Calendar Invite

**Meeting**: %s
**Attendees**: %s
**Duration**: %v minutes
**Day**: %s
`, stringField(args, "subject"), joinAttendees(args["attendees"]), args["duration_minutes"], stringField(args, "preferred_day"))
	case "question":
		return fmt.Sprintf(`# Question for User

%s
`, stringField(args, "content"))
	default:
		encoded, err := json.MarshalIndent(args, "", "  ")
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", args))
		}
		return fmt.Sprintf("# Tool Call: %s\n\nArguments:\n%s\n", name, encoded)
	}
}

func joinAttendees(v any) string {
	switch attendees := v.(type) {
	case []string:
		return strings.Join(attendees, ", ")
	case []any:
		parts := make([]string, 0, len(attendees))
		for _, a := range attendees {
			parts = append(parts, fmt.Sprint(a))
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
