package ocr

import "sync"

// Rotation is a cursor over interchangeable credentials of one vendor.
//
// Every request tries each credential once, starting at the cursor and
// wrapping around. After a success the cursor moves to the credential that
// follows the one that succeeded, so consecutive requests spread across keys.
// Failures never move the cursor.
type Rotation struct {
	mu        sync.Mutex
	providers []Provider
	cursor    int
}

type slot struct {
	index    int
	provider Provider
}

// NewRotation creates a rotation over providers, in configuration order.
func NewRotation(providers ...Provider) *Rotation {
	return &Rotation{providers: providers}
}

// Len returns the number of credentials.
func (r *Rotation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}

// Cursor returns the index of the credential tried first by the next request.
func (r *Rotation) Cursor() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Providers returns the credentials in configuration order.
func (r *Rotation) Providers() []Provider {
	if r == nil {
		return nil
	}
	return append([]Provider(nil), r.providers...)
}

// order returns every credential once, starting at the cursor.
func (r *Rotation) order() []slot {
	n := r.Len()
	if n == 0 {
		return nil
	}
	r.mu.Lock()
	start := r.cursor
	r.mu.Unlock()

	slots := make([]slot, 0, n)
	for i := range n {
		idx := (start + i) % n
		slots = append(slots, slot{index: idx, provider: r.providers[idx]})
	}
	return slots
}

// advance records a success of the credential at index.
func (r *Rotation) advance(index int) {
	n := r.Len()
	if n == 0 {
		return
	}
	r.mu.Lock()
	r.cursor = (index + 1) % n
	r.mu.Unlock()
}
