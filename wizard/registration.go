package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"estate_hub/models"
	"estate_hub/viewmodel"
)

const (
	StepEmailPassword   = "EMAIL_PASSWORD"
	StepPersonalDetails = "PERSONAL_DETAILS"
	StepUserRoles       = "USER_ROLES"
	StepAddress         = "ADDRESS"
	StepProfilePicture  = "PROFILE_PICTURE"
	StepReview          = "REVIEW"
)

var (
	ErrRoleNotSelectable = errors.New("role cannot be selected at registration")

	errCredentialsRequired = errors.New("email and password are required")
	errPersonalRequired    = errors.New("first name, last name and phone are required")
)

// DefaultRole is given to a registration that selected no role.
const DefaultRole = models.RoleGuest

type RegistrationForm struct {
	Email             string          `json:"email"`
	Password          string          `json:"password,omitempty"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	Phone             string          `json:"phone"`
	Roles             []models.Role   `json:"roles"`
	Address           models.Address  `json:"address"`
	ProfilePictureURL string          `json:"profile_picture_url,omitempty"`
	Language          models.Language `json:"language,omitempty"`
}

func registrationSteps() []Step[RegistrationForm] {
	return []Step[RegistrationForm]{
		{Name: StepEmailPassword, Validate: func(f RegistrationForm) error {
			if strings.TrimSpace(f.Email) == "" || f.Password == "" {
				return errCredentialsRequired
			}
			return nil
		}},
		{Name: StepPersonalDetails, Validate: func(f RegistrationForm) error {
			if blank(f.FirstName) || blank(f.LastName) || blank(f.Phone) {
				return errPersonalRequired
			}
			return nil
		}},
		{Name: StepUserRoles},
		{Name: StepAddress, Skippable: true},
		{Name: StepProfilePicture, Skippable: true},
		{Name: StepReview},
	}
}

// SignUpper creates the account; *viewmodel.UserViewModel satisfies it.
type SignUpper interface {
	SignUp(ctx context.Context, email, password string, user models.User) (models.User, error)
}

// Registration is the sign-up wizard. It is safe for concurrent use.
type Registration struct {
	signer SignUpper

	mu       sync.Mutex
	form     RegistrationForm
	machine  *Machine[RegistrationForm]
	status   viewmodel.AuthStatus
	watchers []func(viewmodel.AuthStatus)
}

// NewRegistration creates a sign-up wizard on the EMAIL_PASSWORD step.
func NewRegistration(signer SignUpper) *Registration {
	return &Registration{
		signer:  signer,
		machine: NewMachine(registrationSteps()),
		status:  viewmodel.Idle(),
	}
}

func (r *Registration) Step() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Current().Name
}

// Form returns a copy of the accumulated field state.
func (r *Registration) Form() RegistrationForm {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.form
	f.Roles = append([]models.Role{}, r.form.Roles...)
	return f
}

// Update edits the form. Admin is removed from the role set afterwards, so it
// cannot be granted through here either.
func (r *Registration) Update(fn func(*RegistrationForm)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.form)
	r.form.Roles = selectable(r.form.Roles)
}

func (r *Registration) Status() viewmodel.AuthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Watch registers fn for every status change.
func (r *Registration) Watch(fn func(viewmodel.AuthStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
}

// Advance moves to the next step when the current one validates.
func (r *Registration) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	moved, _ := r.machine.Advance(r.form)
	return moved
}

// CanAdvance reports whether the "next" affordance should be enabled.
func (r *Registration) CanAdvance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Check(r.form) == nil && !r.machine.IsLast()
}

func (r *Registration) Retreat() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Retreat()
}

// Skip is only honoured on ADDRESS and PROFILE_PICTURE.
func (r *Registration) Skip() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Skip()
}

// Goto jumps to a step, e.g. to edit a section from REVIEW.
func (r *Registration) Goto(step string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Goto(step, r.form)
}

// ToggleRole adds role if absent and removes it if present.
func (r *Registration) ToggleRole(role models.Role) error {
	role, ok := models.ParseRole(string(role))
	if !ok || role == models.RoleAdmin {
		return ErrRoleNotSelectable
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.form.Roles {
		if have == role {
			r.form.Roles = append(append([]models.Role{}, r.form.Roles[:i]...), r.form.Roles[i+1:]...)
			return nil
		}
	}
	r.form.Roles = append(append([]models.Role{}, r.form.Roles...), role)
	return nil
}

// Submit builds the user and signs it up. The result is reported through the
// returned status and Status(); Submit itself never fails. A submission that
// is already in flight is not repeated.
func (r *Registration) Submit(ctx context.Context) viewmodel.AuthStatus {
	r.mu.Lock()
	if r.status.Kind == viewmodel.StatusLoading {
		r.mu.Unlock()
		return viewmodel.Loading()
	}
	form := r.form
	form.Roles = append([]models.Role{}, r.form.Roles...)
	_, invalid := r.machine.ValidateAll(form)
	if invalid == nil {
		// claimed under the lock so a concurrent Submit sees Loading
		r.status = viewmodel.Loading()
	}
	r.mu.Unlock()

	if invalid != nil {
		return r.setStatus(viewmodel.Error(invalid.Error()))
	}
	r.notify(viewmodel.Loading())

	_, err := r.signer.SignUp(ctx, strings.TrimSpace(form.Email), form.Password, form.user())
	if err != nil {
		return r.setStatus(viewmodel.ErrorFrom(err))
	}
	return r.setStatus(viewmodel.Success())
}

func (r *Registration) setStatus(s viewmodel.AuthStatus) viewmodel.AuthStatus {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	r.notify(s)
	return s
}

func (r *Registration) notify(s viewmodel.AuthStatus) {
	r.mu.Lock()
	watchers := append([]func(viewmodel.AuthStatus){}, r.watchers...)
	r.mu.Unlock()

	for _, w := range watchers {
		w(s)
	}
}

// user assembles the profile; the id is left empty for the backend to assign.
func (f RegistrationForm) user() models.User {
	roles := selectable(f.Roles)
	if len(roles) == 0 {
		roles = []models.Role{DefaultRole}
	}
	lang := f.Language
	if lang == "" {
		lang = models.LanguageEnglish
	}
	return models.User{
		FirstName:         strings.TrimSpace(f.FirstName),
		LastName:          strings.TrimSpace(f.LastName),
		Phone:             strings.TrimSpace(f.Phone),
		Email:             strings.TrimSpace(f.Email),
		Roles:             roles,
		Address:           f.Address,
		ProfilePictureURL: f.ProfilePictureURL,
		Language:          lang,
		Favorites:         []string{},
	}
}

func selectable(roles []models.Role) []models.Role {
	out := make([]models.Role, 0, len(roles))
	seen := make(map[models.Role]bool, len(roles))
	for _, raw := range roles {
		r, ok := models.ParseRole(string(raw))
		if !ok || r == models.RoleAdmin || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
