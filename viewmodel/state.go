// Package viewmodel holds observable screen state and orchestrates repository
// calls. A view model never panics on a backend failure: the failure is recorded
// in state and returned to the caller.
package viewmodel

import (
	"sort"
	"sync"

	"estate_hub/models"
)

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// AuthStatus tracks one submission: Idle -> Loading -> Success | Error(message).
type AuthStatus struct {
	Kind    StatusKind
	Message string
}

func Idle() AuthStatus    { return AuthStatus{Kind: StatusIdle} }
func Loading() AuthStatus { return AuthStatus{Kind: StatusLoading} }
func Success() AuthStatus { return AuthStatus{Kind: StatusSuccess} }

// Error builds an error status carrying a user-facing message.
func Error(message string) AuthStatus {
	return AuthStatus{Kind: StatusError, Message: message}
}

// ErrorFrom maps a backend failure to its user-facing message.
func ErrorFrom(err error) AuthStatus {
	return Error(models.Message(err))
}

// observable serializes state changes and fans snapshots out to subscribers.
// Slices inside a snapshot are shared and must be treated as read-only.
type observable[S any] struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	state     S
	nextID    int
	listeners map[int]func(S)
}

func (o *observable[S]) snapshot() S {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *observable[S]) subscribe(fn func(S)) func() {
	o.mu.Lock()
	if o.listeners == nil {
		o.listeners = make(map[int]func(S))
	}
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// update applies fn under the state lock and then notifies subscribers in order.
// Listeners must not call update themselves.
func (o *observable[S]) update(fn func(*S)) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	fn(&o.state)
	s := o.state
	ids := make([]int, 0, len(o.listeners))
	for id := range o.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]func(S), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, o.listeners[id])
	}
	o.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}
