package viewmodel

import (
	"context"
	"errors"
	"sync"

	"estate_hub/models"
	"estate_hub/repository"
)

type fakeUsers struct {
	mu       sync.Mutex
	signUpFn func(email, password string, user models.User) (models.User, error)
	loginFn  func(email, password string) (models.LoginResult, error)
	users    map[string]models.User
	listErr  error
	updates  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User)}
}

func (f *fakeUsers) SignUp(ctx context.Context, email, password string, user models.User) (models.User, error) {
	if f.signUpFn != nil {
		return f.signUpFn(email, password, user)
	}
	user.UUID = "uid-" + email
	user.Email = email
	f.mu.Lock()
	f.users[user.UUID] = user
	f.mu.Unlock()
	return user, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users["uid-"+email]
	if !ok {
		return models.LoginResult{}, &models.Failure{Op: "login", Reason: models.ReasonUnauthenticated}
	}
	return models.LoginResult{Token: "tok-" + u.UUID, User: u}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, &models.Failure{Op: "get user", Reason: models.ReasonNotFound}
	}
	return u, nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.users[user.UUID] = user
	return user, nil
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeSessions struct {
	token  string
	role   models.Role
	ended  int
	fail   error
	active bool
}

func (f *fakeSessions) Start(token string, role models.Role) error {
	if f.fail != nil {
		return f.fail
	}
	f.token, f.role, f.active = token, role, true
	return nil
}

func (f *fakeSessions) End() error {
	f.ended++
	f.token, f.role, f.active = "", "", false
	return nil
}

// fakeProperties keeps properties in memory; listErr makes every list call fail.
type fakeProperties struct {
	mu       sync.Mutex
	byID     map[string]models.Property
	order    []string
	types    []models.PropertyType
	listErr  error
	addCalls int
	addFn    func(p models.Property, images []models.ImageFile) (models.Property, repository.UploadReport, error)
	// afterGet runs after each GetProperty read, outside the lock.
	afterGet func()
}

func newFakeProperties(props ...models.Property) *fakeProperties {
	f := &fakeProperties{byID: make(map[string]models.Property)}
	for _, p := range props {
		f.byID[p.UUID] = p
		f.order = append(f.order, p.UUID)
	}
	return f
}

func (f *fakeProperties) AddProperty(ctx context.Context, p models.Property, images []models.ImageFile) (models.Property, repository.UploadReport, error) {
	f.mu.Lock()
	f.addCalls++
	f.mu.Unlock()
	if f.addFn != nil {
		return f.addFn(p, images)
	}
	var report repository.UploadReport
	for _, img := range images {
		url := "https://blobs.test/property_images/" + img.Name
		report.Uploaded = append(report.Uploaded, url)
	}
	p.Images = report.Uploaded
	f.mu.Lock()
	f.byID[p.UUID] = p
	f.order = append(f.order, p.UUID)
	f.mu.Unlock()
	return p, report, nil
}

func (f *fakeProperties) GetProperty(ctx context.Context, id string) (models.Property, error) {
	f.mu.Lock()
	p, ok := f.byID[id]
	f.mu.Unlock()
	if f.afterGet != nil {
		f.afterGet()
	}
	if !ok {
		return models.Property{}, &models.Failure{Op: "get property", Reason: models.ReasonNotFound}
	}
	return p, nil
}

func (f *fakeProperties) set(p models.Property) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.UUID] = p
}

func (f *fakeProperties) ModifyProperty(ctx context.Context, id string, change func(*models.Property) error) (models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return models.Property{}, &models.Failure{Op: "update property", Reason: models.ReasonNotFound}
	}
	wasSold := p.IsSold
	if err := change(&p); err != nil {
		return models.Property{}, models.Fail("update property", models.ReasonValidation, err)
	}
	if wasSold && (!p.IsSold || p.IsListed) {
		return models.Property{}, &models.Failure{Op: "update property", Reason: models.ReasonValidation}
	}
	f.byID[id] = p
	return p, nil
}

func (f *fakeProperties) list(keep func(models.Property) bool) ([]models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Property
	for _, id := range f.order {
		if p := f.byID[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProperties) GetAllProperties(ctx context.Context) ([]models.Property, error) {
	return f.list(func(models.Property) bool { return true })
}

func (f *fakeProperties) ListProperties(ctx context.Context) ([]models.Property, error) {
	return f.list(models.Property.Available)
}

func (f *fakeProperties) ListSoldProperties(ctx context.Context) ([]models.Property, error) {
	return f.list(func(p models.Property) bool { return p.IsSold })
}

func (f *fakeProperties) SearchProperties(ctx context.Context, filter repository.PropertyFilter) ([]models.Property, error) {
	return f.list(func(p models.Property) bool {
		return filter.City == "" || p.Address.City == filter.City
	})
}

func (f *fakeProperties) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.PropertyType{}, f.types...), nil
}

func (f *fakeProperties) AddPropertyType(ctx context.Context, name string) (models.PropertyType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.types {
		if models.NormalizeTypeName(t.Name) == models.NormalizeTypeName(name) {
			return t, nil
		}
	}
	pt := models.PropertyType{UUID: "pt-" + name, Name: name}
	f.types = append(f.types, pt)
	return pt, nil
}

type memRecords[T any] struct {
	mu    sync.Mutex
	added []T
	err   error
}

func (m *memRecords[T]) Add(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, rec)
	return nil
}

var errBackendDown = &models.Failure{Op: "find", Reason: models.ReasonNetwork, Err: errors.New("connection refused")}
