package widget

import (
	"slices"
	"strings"
	"sync"
)

// Registry owns the live widgets, keyed by ID.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]*Widget
}

func NewRegistry() *Registry {
	return &Registry{widgets: make(map[string]*Widget)}
}

func (r *Registry) Add(w *Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[w.ID()] = w
}

// Get returns nil when id is unknown.
func (r *Registry) Get(id string) *Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.widgets[id]
}

// Remove closes and forgets the widget. It reports whether id was known.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	w, ok := r.widgets[id]
	delete(r.widgets, id)
	r.mu.Unlock()
	if ok {
		w.Close()
	}
	return ok
}

// List returns the widgets oldest first.
func (r *Registry) List() []*Widget {
	r.mu.RLock()
	out := make([]*Widget, 0, len(r.widgets))
	for _, w := range r.widgets {
		out = append(out, w)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Widget) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

// CloseAll tears down every widget. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	widgets := r.widgets
	r.widgets = make(map[string]*Widget)
	r.mu.Unlock()
	for _, w := range widgets {
		w.Close()
	}
}
