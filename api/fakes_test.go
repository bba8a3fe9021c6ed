package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"estate_hub/auth"
	"estate_hub/models"
	"estate_hub/repository"
	"estate_hub/wizard"
)

type stubUsers struct {
	mu        sync.Mutex
	tokens    *auth.Tokens
	users     map[string]models.User
	passwords map[string]string
}

func newStubUsers(tokens *auth.Tokens) *stubUsers {
	return &stubUsers{tokens: tokens, users: map[string]models.User{}, passwords: map[string]string{}}
}

func (s *stubUsers) add(u models.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UUID] = u
	s.passwords[u.Email] = password
}

func (s *stubUsers) SignUp(ctx context.Context, email, password string, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[email]; taken {
		return models.User{}, &models.Failure{Op: "sign up", Reason: models.ReasonConflict}
	}
	user.UUID = "uid-" + email
	user.Email = email
	s.users[user.UUID] = user
	s.passwords[email] = password
	return user, nil
}

func (s *stubUsers) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[email]; !ok || pw != password {
		return models.LoginResult{}, &models.Failure{Op: "login", Reason: models.ReasonUnauthenticated}
	}
	for _, u := range s.users {
		if u.Email == email {
			token, err := s.tokens.Issue(u.UUID, u.Email, string(u.PrimaryRole()))
			if err != nil {
				return models.LoginResult{}, err
			}
			return models.LoginResult{Token: token, User: u}, nil
		}
	}
	return models.LoginResult{}, &models.Failure{Op: "login", Reason: models.ReasonNotFound}
}

func (s *stubUsers) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, &models.Failure{Op: "get user", Reason: models.ReasonNotFound}
	}
	return u, nil
}

func (s *stubUsers) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UUID] = user
	return user, nil
}

func (s *stubUsers) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

type stubProperties struct {
	mu      sync.Mutex
	byID    map[string]models.Property
	order   []string
	types   []models.PropertyType
	listErr error
	addErr  error
	images  [][]models.ImageFile
}

func newStubProperties(props ...models.Property) *stubProperties {
	s := &stubProperties{byID: map[string]models.Property{}}
	for _, p := range props {
		s.byID[p.UUID] = p
		s.order = append(s.order, p.UUID)
	}
	return s
}

func (s *stubProperties) AddProperty(ctx context.Context, p models.Property, images []models.ImageFile) (models.Property, repository.UploadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return models.Property{}, repository.UploadReport{}, s.addErr
	}
	if _, taken := s.byID[p.UUID]; taken {
		return models.Property{}, repository.UploadReport{}, &models.Failure{Op: "create properties", Reason: models.ReasonConflict}
	}
	var report repository.UploadReport
	for _, img := range images {
		report.Uploaded = append(report.Uploaded, "https://blobs.test/"+img.Name)
	}
	p.Images = report.Uploaded
	s.byID[p.UUID] = p
	s.order = append(s.order, p.UUID)
	s.images = append(s.images, images)
	return p, report, nil
}

func (s *stubProperties) GetProperty(ctx context.Context, id string) (models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return models.Property{}, &models.Failure{Op: "get property", Reason: models.ReasonNotFound}
	}
	return p, nil
}

func (s *stubProperties) ModifyProperty(ctx context.Context, id string, change func(*models.Property) error) (models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return models.Property{}, &models.Failure{Op: "update property", Reason: models.ReasonNotFound}
	}
	if err := change(&p); err != nil {
		return models.Property{}, models.Fail("update property", models.ReasonValidation, err)
	}
	s.byID[id] = p
	return p, nil
}

func (s *stubProperties) list(keep func(models.Property) bool) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Property
	for _, id := range s.order {
		if p := s.byID[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProperties) GetAllProperties(ctx context.Context) ([]models.Property, error) {
	return s.list(func(models.Property) bool { return true })
}

func (s *stubProperties) ListProperties(ctx context.Context) ([]models.Property, error) {
	return s.list(models.Property.Available)
}

func (s *stubProperties) ListSoldProperties(ctx context.Context) ([]models.Property, error) {
	return s.list(func(p models.Property) bool { return p.IsSold })
}

func (s *stubProperties) SearchProperties(ctx context.Context, f repository.PropertyFilter) ([]models.Property, error) {
	return s.list(func(p models.Property) bool {
		return (f.City == "" || p.Address.City == f.City) && (!f.OnlyListed || p.Available())
	})
}

func (s *stubProperties) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PropertyType{}, s.types...), nil
}

func (s *stubProperties) AddPropertyType(ctx context.Context, name string) (models.PropertyType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt := models.PropertyType{UUID: "type-" + name, Name: name}
	s.types = append(s.types, pt)
	return pt, nil
}

type stubRecords[T any] struct {
	mu    sync.Mutex
	items []T
	field func(T) string
}

func (s *stubRecords[T]) Add(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return nil
}

func (s *stubRecords[T]) ListBy(ctx context.Context, field, value string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []T{}
	for _, it := range s.items {
		if s.field(it) == value {
			out = append(out, it)
		}
	}
	return out, nil
}

type testEnv struct {
	tokens       *auth.Tokens
	users        *stubUsers
	properties   *stubProperties
	appointments *stubRecords[models.Appointment]
	inquiries    *stubRecords[models.Inquiry]
	drafts       *wizard.Registry
	deps         Deps
	handler      http.Handler
}

func newTestEnv(props ...models.Property) *testEnv {
	tokens := auth.NewTokens("test-secret", time.Hour)
	env := &testEnv{
		tokens:       tokens,
		users:        newStubUsers(tokens),
		properties:   newStubProperties(props...),
		appointments: &stubRecords[models.Appointment]{field: func(a models.Appointment) string { return a.UserID }},
		inquiries:    &stubRecords[models.Inquiry]{field: func(i models.Inquiry) string { return i.UserID }},
		drafts:       wizard.NewRegistry(),
	}
	env.deps = Deps{
		Users:        env.users,
		Properties:   env.properties,
		Appointments: env.appointments,
		Inquiries:    env.inquiries,
		Tokens:       tokens,
		Drafts:       env.drafts,
	}
	env.handler = NewServer(env.deps).Routes()
	return env
}

// with rebuilds the handler after fn adjusts the server dependencies.
func (e *testEnv) with(fn func(*Deps)) *testEnv {
	fn(&e.deps)
	e.handler = NewServer(e.deps).Routes()
	return e
}

// tokenFor registers a user with the given role and returns a bearer token.
func (e *testEnv) tokenFor(id string, role models.Role) string {
	e.users.add(models.User{UUID: id, Email: id + "@example.com", Roles: []models.Role{role}, Favorites: []string{}}, "pw")
	token, err := e.tokens.Issue(id, id+"@example.com", string(role))
	if err != nil {
		panic(err)
	}
	return token
}
