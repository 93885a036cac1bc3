// Package topicmgr keeps a catalog of the event topics the service publishes,
// so tooling can list them and names stay consistent.
package topicmgr

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrDuplicateTopic = errors.New("topic already registered")
)

// Topic names are dotted lowercase segments: area.entity.action.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)+$`)

// Topic describes one event topic.
type Topic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
}

// Registry is a concurrency-safe topic catalog.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Topic
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Topic)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register validates t and adds it to the catalog.
func (r *Registry) Register(t Topic) error {
	if err := Validate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTopic, t.Name)
	}
	r.entries[t.Name] = t
	return nil
}

// MustRegister is Register for package-level topic declarations.
func (r *Registry) MustRegister(t Topic) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get looks a topic up by name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entries[name]
	return t, ok
}

// List returns every topic sorted by name.
func (r *Registry) List() []Topic {
	r.mu.RLock()
	topics := lo.Values(r.entries)
	r.mu.RUnlock()

	slices.SortFunc(topics, func(a, b Topic) int { return strings.Compare(a.Name, b.Name) })
	return topics
}

// ListByPrefix returns the topics whose name starts with prefix.
func (r *Registry) ListByPrefix(prefix string) []Topic {
	return lo.Filter(r.List(), func(t Topic, _ int) bool {
		return strings.HasPrefix(t.Name, prefix)
	})
}

// Validate checks the naming convention and that a description is present.
func Validate(t Topic) error {
	if len(t.Name) > 100 {
		return fmt.Errorf("%w: name too long (max 100 characters)", ErrInvalidTopic)
	}
	if !namePattern.MatchString(t.Name) {
		return fmt.Errorf("%w: %q must be dotted lowercase segments like chat.message.posted", ErrInvalidTopic, t.Name)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: %s has no description", ErrInvalidTopic, t.Name)
	}
	return nil
}
