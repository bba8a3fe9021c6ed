package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Draft is a wizard in progress on behalf of a remote client. Exactly one of
// Registration and Property is set.
type Draft struct {
	ID           string
	Owner        string
	Registration *Registration
	Property     *AddProperty

	lastSeen time.Time
}

// ErrFull is returned by PutLimited when the limit for that kind of draft is reached.
var ErrFull = errors.New("too many drafts in progress")

// Registry keeps drafts between requests until they are finished or go idle.
type Registry struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{drafts: make(map[string]*Draft), now: time.Now}
}

// Put stores d under a new id and returns it.
func (r *Registry) Put(d *Draft) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	d.lastSeen = r.now()
	r.drafts[d.ID] = d
	return d.ID
}

// PutLimited stores d like Put unless max drafts of the same kind (registration
// or property) are already live. A max of zero or less means no limit.
func (r *Registry) PutLimited(d *Draft, max int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if max > 0 {
		live := 0
		for _, other := range r.drafts {
			if (other.Registration != nil) == (d.Registration != nil) {
				live++
			}
		}
		if live >= max {
			return "", ErrFull
		}
	}
	d.ID = uuid.NewString()
	d.lastSeen = r.now()
	r.drafts[d.ID] = d
	return d.ID, nil
}

// Get returns the draft and marks it as recently used.
func (r *Registry) Get(id string) (*Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if ok {
		d.lastSeen = r.now()
	}
	return d, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

// Sweep drops drafts untouched for longer than idle and returns how many went.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	removed := 0
	for id, d := range r.drafts {
		if d.lastSeen.Before(cutoff) {
			delete(r.drafts, id)
			removed++
		}
	}
	return removed
}
