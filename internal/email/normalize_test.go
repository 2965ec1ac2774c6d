package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStandardSchema(t *testing.T) {
	rec := Normalize(map[string]any{
		"author":       "Alice Smith <alice.smith@company.com>",
		"to":           "Lance Martin <lance@company.com>",
		"subject":      "Quick question about API documentation",
		"email_thread": "Hi Lance,\n\nUrgent question about missing endpoints.",
	})

	assert.Equal(t, "Alice Smith <alice.smith@company.com>", rec.Author)
	assert.Equal(t, "Lance Martin <lance@company.com>", rec.Recipient)
	assert.Equal(t, "Quick question about API documentation", rec.Subject)
	assert.Equal(t, "Hi Lance,\n\nUrgent question about missing endpoints.", rec.Body)
}

func TestNormalizeGmailSchema(t *testing.T) {
	rec := Normalize(map[string]any{
		"from_email":   "alice.smith@company.com",
		"to_email":     "lance@company.com",
		"subject":      "Quick question about API documentation",
		"page_content": "Hi Lance, quick question.",
		"id":           "18f2a9",
		"thread_id":    "18f2a9",
		"send_time":    "2025-05-02T10:00:00Z",
	})

	assert.Equal(t, "alice.smith@company.com", rec.Author)
	assert.Equal(t, "lance@company.com", rec.Recipient)
	assert.Equal(t, "Quick question about API documentation", rec.Subject)
	assert.Equal(t, "Hi Lance, quick question.", rec.Body)
}

func TestNormalizeFallbackPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Record
	}{
		{
			name: "empty input",
			raw:  map[string]any{},
			want: Record{
				Author:    PlaceholderAuthor,
				Recipient: PlaceholderRecipient,
				Subject:   PlaceholderSubject,
				Body:      PlaceholderBody,
			},
		},
		{
			name: "partial fields from mixed schemas",
			raw: map[string]any{
				"from_email": "bot@service.example",
				"subject":    "Alert",
			},
			want: Record{
				Author:    "bot@service.example",
				Recipient: PlaceholderRecipient,
				Subject:   "Alert",
				Body:      PlaceholderBody,
			},
		},
		{
			name: "content key recovered",
			raw: map[string]any{
				"content": "body only",
			},
			want: Record{
				Author:    PlaceholderAuthor,
				Recipient: PlaceholderRecipient,
				Subject:   PlaceholderSubject,
				Body:      "body only",
			},
		},
		{
			name: "non-string values treated as absent",
			raw: map[string]any{
				"author":       42,
				"email_thread": true,
				"subject":      nil,
			},
			want: Record{
				Author:    PlaceholderAuthor,
				Recipient: PlaceholderRecipient,
				Subject:   PlaceholderSubject,
				Body:      PlaceholderBody,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []map[string]any{
		{
			"author":       "Alice <alice@company.com>",
			"to":           "Lance <lance@company.com>",
			"subject":      "Sync tomorrow?",
			"email_thread": "Do you have 45 minutes tomorrow?",
		},
		{
			"from_email":   "pm@client.com",
			"to_email":     "lance@company.com",
			"subject":      "URGENT: Critical bug",
			"page_content": "Authentication is failing for several customers.",
		},
		{
			"unrecognized": "shape",
		},
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.Raw())
		assert.Equal(t, once, twice)
	}
}

func TestMarkdown(t *testing.T) {
	rec := Record{
		Author:    "Marketing Team <marketing@amazingdeals.com>",
		Recipient: "Lance <lance@company.com>",
		Subject:   "EXCLUSIVE OFFER",
		Body:      "Limited time offer!",
	}

	md := Markdown(rec)
	assert.Contains(t, md, "**Subject**: EXCLUSIVE OFFER")
	assert.Contains(t, md, "**From**: Marketing Team <marketing@amazingdeals.com>")
	assert.Contains(t, md, "**To**: Lance <lance@company.com>")
	assert.Contains(t, md, "Limited time offer!")
	assert.True(t, strings.HasSuffix(md, "---\n"))
}

func TestFormatToolCallEmailDraft(t *testing.T) {
	display := FormatToolCall("write_email", map[string]any{
		"to":      "alice@company.com",
		"subject": "RE: API documentation",
		"content": "Hi Alice, the endpoints exist but are undocumented.",
	})

	require.Contains(t, display, "# Email Draft")
	assert.Contains(t, display, "**To**: alice@company.com")
	assert.Contains(t, display, "**Subject**: RE: API documentation")
	assert.Contains(t, display, "undocumented")
}

func TestFormatToolCallCalendarInvite(t *testing.T) {
	display := FormatToolCall("schedule_meeting", map[string]any{
		"subject":          "Planning sync",
		"attendees":        []any{"alice@company.com", "lance@company.com"},
		"duration_minutes": 45,
		"preferred_day":    "2025-05-22",
	})

	require.Contains(t, display, "# Calendar Invite")
	assert.Contains(t, display, "**Meeting**: Planning sync")
	assert.Contains(t, display, "alice@company.com, lance@company.com")
	assert.Contains(t, display, "45 minutes")
	assert.Contains(t, display, "**Day**: 2025-05-22")
}

func TestFormatToolCallQuestion(t *testing.T) {
	display := FormatToolCall("question", map[string]any{
		"content": "Which proposal should I reference?",
	})

	require.Contains(t, display, "# Question for User")
	assert.Contains(t, display, "Which proposal should I reference?")
}

func TestFormatToolCallGeneric(t *testing.T) {
	display := FormatToolCall("check_calendar_availability", map[string]any{
		"day": "2025-05-22",
	})

	require.Contains(t, display, "# Tool Call: check_calendar_availability")
	assert.Contains(t, display, `"day"`)
	assert.Contains(t, display, "2025-05-22")
}
