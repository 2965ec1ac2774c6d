package agent_tools

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/google"
)

func TestIngestCutoff(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("default window", func(t *testing.T) {
		since, err := ingestCutoff(map[string]interface{}{}, now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-24*time.Hour), since)
	})

	t.Run("hours", func(t *testing.T) {
		since, err := ingestCutoff(map[string]interface{}{"hours": float64(6)}, now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-6*time.Hour), since)
	})

	t.Run("since overrides hours", func(t *testing.T) {
		since, err := ingestCutoff(map[string]interface{}{
			"since": "2025-06-01T00:00:00Z",
			"hours": float64(6),
		}, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), since)
	})

	t.Run("malformed since", func(t *testing.T) {
		_, err := ingestCutoff(map[string]interface{}{"since": "yesterday"}, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RFC3339")
	})
}

func TestIngestEmailsStartsRunPerThread(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	emails := []gmail.InboundEmail{
		{From: "alice@example.com", Subject: "First", Body: "hi", ThreadID: "thread-1"},
		{From: "bob@example.com", Subject: "Second", Body: "hello", ThreadID: "thread-2"},
	}

	results := ingestEmails(context.Background(), sc.Orchestrator(), emails)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "success", r.Status)
		assert.Contains(t, r.Result, "run is completed")
	}

	runs, err := sc.Orchestrator().ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestIngestEmailsIsIdempotent(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	emails := []gmail.InboundEmail{
		{From: "alice@example.com", Subject: "First", Body: "hi", ThreadID: "thread-1"},
	}

	results := ingestEmails(context.Background(), sc.Orchestrator(), emails)
	require.Len(t, results, 1)
	assert.Equal(t, "success", results[0].Status)

	// A second ingest of the same thread is skipped, not duplicated.
	results = ingestEmails(context.Background(), sc.Orchestrator(), emails)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Result, "already ingested")

	runs, err := sc.Orchestrator().ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestIngestEmailsSkipsAnsweredThreads(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	emails := []gmail.InboundEmail{
		{From: "alice@example.com", Subject: "Answered", Body: "hi", ThreadID: "thread-1", UserReplied: true},
	}

	results := ingestEmails(context.Background(), sc.Orchestrator(), emails)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Result, "user already replied")

	runs, err := sc.Orchestrator().ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInboxClientWithoutCredentials(t *testing.T) {
	// Point the token lookup at an empty directory so no cached token
	// leaks into the test.
	t.Setenv(google.EnvStaticToken, "")
	t.Setenv(google.EnvTokenFile, filepath.Join(t.TempDir(), "google.token"))

	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	_, err := inboxClient(context.Background(), sc, "jane@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), google.EnvStaticToken)
}
