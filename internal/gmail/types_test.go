package gmail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/inboxagent/internal/email"
)

func TestRawNormalizesToRecord(t *testing.T) {
	in := InboundEmail{
		From:      "Alice <alice@example.com>",
		To:        "me@example.com",
		Subject:   "API question",
		Body:      "Which endpoint returns usage stats?",
		MessageID: "msg-1",
		ThreadID:  "thread-1",
		SendTime:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}

	rec := email.Normalize(in.Raw())
	assert.Equal(t, "Alice <alice@example.com>", rec.Author)
	assert.Equal(t, "me@example.com", rec.Recipient)
	assert.Equal(t, "API question", rec.Subject)
	assert.Equal(t, "Which endpoint returns usage stats?", rec.Body)
}

func TestRunIDDeterministic(t *testing.T) {
	a := RunID("thread-1")
	assert.Equal(t, a, RunID("thread-1"))
	assert.NotEqual(t, a, RunID("thread-2"))
	assert.Contains(t, a, "gmail-")
	assert.Len(t, a, len("gmail-")+16)
}
