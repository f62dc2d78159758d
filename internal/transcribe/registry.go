package transcribe

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds a ready engine for one model. Construction is deferred so a
// job captures the engine for its pinned model at start and later /model
// switches cannot affect a run in flight.
type Factory func(ctx context.Context) (Transcriber, error)

// ModelInfo describes one selectable model for the /model listing.
type ModelInfo struct {
	ID        string
	Name      string
	SizeLabel string
	Local     bool
	Ready     bool
}

type registryEntry struct {
	info    ModelInfo
	factory Factory
}

// Registry holds the selectable transcription models and the current choice.
// Selection only changes which factory future jobs capture.
type Registry struct {
	mu        sync.RWMutex
	entries   []registryEntry
	currentID string
}

// NewRegistry constructs an empty model registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a model. The first registered model becomes current.
func (r *Registry) Register(info ModelInfo, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registryEntry{info: info, factory: factory})
	if r.currentID == "" {
		r.currentID = info.ID
	}
}

// Select switches the current model by ID.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.info.ID == id {
			r.currentID = id
			return nil
		}
	}
	return fmt.Errorf("unknown model: %s", id)
}

// CurrentID returns the ID of the currently selected model.
func (r *Registry) CurrentID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentID
}

// Current returns the selected model's ID and factory. The caller pins both
// for the duration of one job.
func (r *Registry) Current() (string, Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.info.ID == r.currentID {
			return entry.info.ID, entry.factory, nil
		}
	}
	return "", nil, fmt.Errorf("no models registered")
}

// List returns the registered models in registration order.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]ModelInfo, 0, len(r.entries))
	for _, entry := range r.entries {
		infos = append(infos, entry.info)
	}
	return infos
}
