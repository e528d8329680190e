package session

import "sync"

// Tracker mirrors the current identity as reported by the auth backend and
// notifies subscribers when it changes.
type Tracker struct {
	listeners map[int]func(Identity)
	current   Identity
	nextID    int
	mu        sync.Mutex
}

// NewTracker creates a tracker with no signed-in user
func NewTracker() *Tracker {
	return &Tracker{
		listeners: make(map[int]func(Identity)),
	}
}

// Current returns the signed-in identity, or Anonymous
func (t *Tracker) Current() Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set records a new identity. Listeners are only invoked when the value changes.
func (t *Tracker) Set(identity Identity) {
	t.mu.Lock()
	if t.current == identity {
		t.mu.Unlock()
		return
	}
	t.current = identity
	callbacks := make([]func(Identity), 0, len(t.listeners))
	for _, cb := range t.listeners {
		callbacks = append(callbacks, cb)
	}
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(identity)
	}
}

// Clear signs the tracked user out
func (t *Tracker) Clear() {
	t.Set(Anonymous)
}

// OnChange registers a callback for identity changes. The callback is invoked
// immediately with the current identity. The returned func removes it and is
// safe to call more than once.
func (t *Tracker) OnChange(cb func(Identity)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = cb
	current := t.current
	t.mu.Unlock()

	cb(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.listeners, id)
			t.mu.Unlock()
		})
	}
}
