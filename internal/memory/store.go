package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/logging"
)

// Namespace addresses one preference profile.
type Namespace []string

// String joins the namespace parts with "/" for storage keys and logs.
func (ns Namespace) String() string {
	return strings.Join(ns, "/")
}

// Canonical namespaces used by the agent.
var (
	NamespaceTriage     = Namespace{"email_assistant", "triage_preferences"}
	NamespaceResponse   = Namespace{"email_assistant", "response_preferences"}
	NamespaceCalendar   = Namespace{"email_assistant", "cal_preferences"}
	NamespaceBackground = Namespace{"email_assistant", "background"}
)

// ParseNamespace converts a "/"-joined key back into a Namespace.
func ParseNamespace(key string) Namespace {
	if key == "" {
		return nil
	}
	return Namespace(strings.Split(key, "/"))
}

// MergeError reports a failed preference merge. The stored profile is
// guaranteed untouched when a MergeError is returned.
type MergeError struct {
	Namespace Namespace
	Err       error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("preference merge for %s: %v", e.Namespace, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Backing is the durable storage behind the preference store.
type Backing interface {
	Load(ctx context.Context, key string) (content string, ok bool, err error)
	Save(ctx context.Context, key, content string) error
	List(ctx context.Context) (map[string]string, error)
}

// Store is the preference store: lazy-seeded reads, overwriting puts,
// and additive merges through a distiller.
type Store struct {
	backing   Backing
	distiller llm.Distiller
	seeds     map[string]string
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithSeeds sets the default content served (and persisted) on first
// read of a namespace. Keys are Namespace.String() values.
func WithSeeds(seeds map[string]string) Option {
	return func(s *Store) { s.seeds = seeds }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a preference store over the given backing. The distiller
// may be nil, in which case Merge fails with a MergeError and Get/Put
// still work.
func New(backing Backing, distiller llm.Distiller, opts ...Option) *Store {
	s := &Store{
		backing:   backing,
		distiller: distiller,
		seeds:     DefaultSeeds(),
		logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the profile content for ns, seeding it with the default
// on first read.
func (s *Store) Get(ctx context.Context, ns Namespace) (string, error) {
	key := ns.String()
	content, ok, err := s.backing.Load(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	if ok {
		return content, nil
	}

	seed := s.seeds[key]
	if err := s.backing.Save(ctx, key, seed); err != nil {
		return "", fmt.Errorf("seed %s: %w", key, err)
	}
	s.logger.Debug("seeded preference namespace", logging.Namespace(key))
	return seed, nil
}

// Put overwrites the profile content for ns. Used for seeding and
// explicit operator updates; feedback goes through Merge.
func (s *Store) Put(ctx context.Context, ns Namespace, content string) error {
	if err := s.backing.Save(ctx, ns.String(), content); err != nil {
		return fmt.Errorf("save %s: %w", ns, err)
	}
	return nil
}

// Merge distills feedback into the profile for ns and persists the
// result. The distiller is instructed to make only targeted additions
// or corrections; on any failure the stored profile is left unchanged
// and a MergeError is returned. Merges into the same namespace are
// serialized and always read the latest committed content.
func (s *Store) Merge(ctx context.Context, ns Namespace, feedback []llm.Message) (string, error) {
	if s.distiller == nil {
		return "", &MergeError{Namespace: ns, Err: fmt.Errorf("no distiller configured")}
	}

	lock := s.namespaceLock(ns.String())
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Get(ctx, ns)
	if err != nil {
		return "", &MergeError{Namespace: ns, Err: err}
	}

	msgs := append([]llm.Message{llm.UserMessage(updateLeadIn)}, feedback...)
	update, err := s.distiller.Distill(ctx, UpdatePrompt(ns, current), msgs)
	if err != nil {
		return "", &MergeError{Namespace: ns, Err: err}
	}
	if strings.TrimSpace(update.Preferences) == "" {
		return "", &MergeError{Namespace: ns, Err: fmt.Errorf("distiller returned empty profile")}
	}

	if err := s.backing.Save(ctx, ns.String(), update.Preferences); err != nil {
		return "", &MergeError{Namespace: ns, Err: err}
	}

	s.logger.Info("preference profile updated",
		logging.Namespace(ns.String()),
		slog.Int("profile_chars", len(update.Preferences)))
	return update.Preferences, nil
}

// List returns all stored profiles keyed by namespace string.
func (s *Store) List(ctx context.Context) (map[string]string, error) {
	return s.backing.List(ctx)
}

func (s *Store) namespaceLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
