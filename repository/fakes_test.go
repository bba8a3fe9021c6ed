package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"

	"estate_hub/models"
)

// memStore is an in-memory DocumentStore with JSONB-style containment for Find.
type memStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]json.RawMessage
	order    map[string][]string
	failAll  error
	failPut  error
	puts     int
	findCall int
}

func newMemStore() *memStore {
	return &memStore{
		docs:  make(map[string]map[string]json.RawMessage),
		order: make(map[string][]string),
	}
}

func (m *memStore) Put(ctx context.Context, collection, id string, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failAll != nil {
		return m.failAll
	}
	if m.failPut != nil {
		return m.failPut
	}
	return m.write(collection, id, doc)
}

func (m *memStore) Create(ctx context.Context, collection, id string, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failAll != nil {
		return m.failAll
	}
	if m.failPut != nil {
		return m.failPut
	}
	if _, ok := m.docs[collection][id]; ok {
		return &models.Failure{Op: "create", Reason: models.ReasonConflict}
	}
	return m.write(collection, id, doc)
}

// Update holds the store lock across change, like a row lock would.
func (m *memStore) Update(ctx context.Context, collection, id string, change func(current json.RawMessage) (any, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	current, ok := m.docs[collection][id]
	if !ok {
		return &models.Failure{Op: "update " + collection, Reason: models.ReasonNotFound}
	}
	doc, err := change(current)
	if err != nil {
		return err
	}
	m.puts++
	return m.write(collection, id, doc)
}

func (m *memStore) write(collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]json.RawMessage)
	}
	if _, ok := m.docs[collection][id]; !ok {
		m.order[collection] = append(m.order[collection], id)
	}
	m.docs[collection][id] = data
	return nil
}

func (m *memStore) Get(ctx context.Context, collection, id string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	data, ok := m.docs[collection][id]
	if !ok {
		return &models.Failure{Op: "get " + collection, Reason: models.ReasonNotFound}
	}
	return json.Unmarshal(data, dest)
}

func (m *memStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []json.RawMessage
	for _, id := range m.order[collection] {
		out = append(out, m.docs[collection][id])
	}
	return out, nil
}

func (m *memStore) Find(ctx context.Context, collection string, match map[string]any) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCall++
	if m.failAll != nil {
		return nil, m.failAll
	}

	filterJSON, _ := json.Marshal(match)
	var filter map[string]any
	_ = json.Unmarshal(filterJSON, &filter)

	var out []json.RawMessage
	for _, id := range m.order[collection] {
		var doc map[string]any
		if err := json.Unmarshal(m.docs[collection][id], &doc); err != nil {
			continue
		}
		if contains(doc, filter) {
			out = append(out, m.docs[collection][id])
		}
	}
	return out, nil
}

func contains(doc, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		wantMap, wantIsMap := want.(map[string]any)
		gotMap, gotIsMap := got.(map[string]any)
		if wantIsMap && gotIsMap {
			if !contains(gotMap, wantMap) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func (m *memStore) ids(collection string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]string{}, m.order[collection]...)
	sort.Strings(ids)
	return ids
}

// memBlobs records uploads and fails the ones whose index is in failOn.
type memBlobs struct {
	mu      sync.Mutex
	calls   int
	failOn  map[int]bool
	objects map[string][]byte
}

func newMemBlobs(failOn ...int) *memBlobs {
	b := &memBlobs{failOn: make(map[int]bool), objects: make(map[string][]byte)}
	for _, i := range failOn {
		b.failOn[i] = true
	}
	return b
}

func (b *memBlobs) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.calls
	b.calls++
	if b.failOn[idx] {
		return "", &models.Failure{Op: "put object", Reason: models.ReasonNetwork, Err: errors.New("connection reset")}
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	b.objects[key] = body
	return fmt.Sprintf("https://blobs.test/%s", key), nil
}

// fakeIdentity is an IdentityProvider keyed by email.
type fakeIdentity struct {
	mu        sync.Mutex
	accounts  map[string]struct{ id, password string }
	next      int
	createErr error
	deleted   []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: make(map[string]struct{ id, password string })}
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	if _, ok := f.accounts[email]; ok {
		return "", &models.Failure{Op: "create account", Reason: models.ReasonConflict}
	}
	f.next++
	id := fmt.Sprintf("uid-%d", f.next)
	f.accounts[email] = struct{ id, password string }{id, password}
	return id, nil
}

func (f *fakeIdentity) Authenticate(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return "", &models.Failure{Op: "authenticate", Reason: models.ReasonUnauthenticated}
	}
	return acc.id, nil
}

func (f *fakeIdentity) DeleteAccount(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, userID)
	for email, acc := range f.accounts {
		if acc.id == userID {
			delete(f.accounts, email)
		}
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID, email, role string) (string, error) {
	return "token-" + userID + "-" + role, nil
}
