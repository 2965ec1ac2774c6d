package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/llm"
)

func TestSQLiteBackingRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	backing, err := NewSQLiteBacking(path)
	require.NoError(t, err)
	defer backing.Close()

	_, ok, err := backing.Load(ctx, NamespaceTriage.String())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backing.Save(ctx, NamespaceTriage.String(), "first version"))

	content, ok, err := backing.Load(ctx, NamespaceTriage.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first version", content)

	// Save on an existing namespace upserts.
	require.NoError(t, backing.Save(ctx, NamespaceTriage.String(), "second version"))
	content, ok, err = backing.Load(ctx, NamespaceTriage.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second version", content)
}

func TestSQLiteBackingList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	backing, err := NewSQLiteBacking(path)
	require.NoError(t, err)
	defer backing.Close()

	require.NoError(t, backing.Save(ctx, NamespaceTriage.String(), "triage rules"))
	require.NoError(t, backing.Save(ctx, NamespaceResponse.String(), "response style"))

	all, err := backing.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "triage rules", all[NamespaceTriage.String()])
	assert.Equal(t, "response style", all[NamespaceResponse.String()])
}

func TestSQLiteBackingPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	backing, err := NewSQLiteBacking(path)
	require.NoError(t, err)
	require.NoError(t, backing.Save(ctx, NamespaceBackground.String(), "works on infra team"))
	require.NoError(t, backing.Close())

	reopened, err := NewSQLiteBacking(path)
	require.NoError(t, err)
	defer reopened.Close()

	content, ok, err := reopened.Load(ctx, NamespaceBackground.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "works on infra team", content)
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	backing, err := NewSQLiteBacking(path)
	require.NoError(t, err)
	defer backing.Close()

	store := New(backing, &appendDistiller{})

	// Lazy default seeding goes through the sqlite backing.
	content, err := store.Get(ctx, NamespaceTriage)
	require.NoError(t, err)
	assert.Contains(t, content, "Marketing newsletters")

	merged, err := store.Merge(ctx, NamespaceTriage, []llm.Message{
		llm.UserMessage("always notify about security advisories"),
	})
	require.NoError(t, err)
	assert.Contains(t, merged, "security advisories")
	assert.Contains(t, merged, "Marketing newsletters")
}
