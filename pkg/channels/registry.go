package channels

import (
	"sort"
	"sync"
)

// Registry holds the set of configured channels keyed by name.
//
// Every read returns copies, so callers may keep the returned slices for
// the duration of a routing run without observing later mutations. The
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// NewRegistryFrom builds a registry from a list of channel records.
// It fails on the first invalid or duplicate record.
func NewRegistryFrom(list []Channel) (*Registry, error) {
	r := NewRegistry()
	for _, ch := range list {
		if err := r.Insert(ch); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Len returns the number of channels, enabled or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// List returns the enabled channels sorted by (priority, name).
func (r *Registry) List() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		if ch.Enabled {
			out = append(out, ch)
		}
	}
	sortChannels(out)
	return out
}

// All returns every channel, including disabled ones, sorted by (priority, name).
func (r *Registry) All() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	sortChannels(out)
	return out
}

// EligibleFor returns the subsequence of List whose channels serve model.
func (r *Registry) EligibleFor(model string) []Channel {
	enabled := r.List()
	out := enabled[:0]
	for _, ch := range enabled {
		if ch.Serves(model) {
			out = append(out, ch)
		}
	}
	return out
}

// Get returns the named channel.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[name]
	if !ok {
		return Channel{}, &NotFoundError{Name: name}
	}
	return ch, nil
}

// Insert adds a new channel. The registry is unchanged on error.
func (r *Registry) Insert(ch Channel) error {
	if err := ch.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[ch.Name]; exists {
		return &DuplicateNameError{Name: ch.Name}
	}
	r.channels[ch.Name] = ch
	return nil
}

// Update applies mutate to a copy of the named channel and stores the
// result. Renaming through Update is rejected when the new name is taken.
// The registry is unchanged on error.
func (r *Registry) Update(name string, mutate func(*Channel)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[name]
	if !ok {
		return &NotFoundError{Name: name}
	}

	updated := ch
	mutate(&updated)
	if err := updated.Validate(); err != nil {
		return err
	}

	if updated.Name != name {
		if _, taken := r.channels[updated.Name]; taken {
			return &DuplicateNameError{Name: updated.Name}
		}
		delete(r.channels, name)
	}
	r.channels[updated.Name] = updated
	return nil
}

// Remove deletes the named channel.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(r.channels, name)
	return nil
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry{channels: make(map[string]Channel, len(r.channels))}
	for name, ch := range r.channels {
		c.channels[name] = ch
	}
	return c
}

// Sort orders list by priority ascending, then name ascending.
func Sort(list []Channel) {
	sortChannels(list)
}

func sortChannels(list []Channel) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].Name < list[j].Name
	})
}
