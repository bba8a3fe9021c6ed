package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate_hub/models"
	"estate_hub/viewmodel"
)

type spySigner struct {
	mu       sync.Mutex
	calls    int
	email    string
	password string
	user     models.User
	err      error
}

func (s *spySigner) SignUp(ctx context.Context, email, password string, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.email, s.password, s.user = email, password, user
	if s.err != nil {
		return models.User{}, s.err
	}
	user.UUID = "backend-id"
	return user, nil
}

func fillRegistration(r *Registration) {
	r.Update(func(f *RegistrationForm) {
		f.Email = "a@b.com"
		f.Password = "x"
		f.FirstName = "A"
		f.LastName = "B"
		f.Phone = "123"
	})
}

func TestRegistration_AdvanceBlockedByValidation(t *testing.T) {
	r := NewRegistration(&spySigner{})

	assert.False(t, r.CanAdvance())
	assert.False(t, r.Advance())
	assert.Equal(t, StepEmailPassword, r.Step())

	r.Update(func(f *RegistrationForm) { f.Email = "a@b.com" })
	assert.False(t, r.Advance(), "password still missing")
	assert.Equal(t, StepEmailPassword, r.Step())

	r.Update(func(f *RegistrationForm) { f.Password = "x" })
	require.True(t, r.Advance())
	assert.Equal(t, StepPersonalDetails, r.Step())

	r.Update(func(f *RegistrationForm) { f.FirstName, f.LastName = "A", "B" })
	assert.False(t, r.Advance(), "phone still missing")
	assert.Equal(t, StepPersonalDetails, r.Step())

	r.Update(func(f *RegistrationForm) { f.Phone = "  " })
	assert.False(t, r.Advance(), "blank phone")

	r.Update(func(f *RegistrationForm) { f.Phone = "123" })
	require.True(t, r.Advance())
	assert.Equal(t, StepUserRoles, r.Step())
}

func TestRegistration_RetreatAndReturn(t *testing.T) {
	r := NewRegistration(&spySigner{})

	assert.False(t, r.Retreat())
	assert.Equal(t, StepEmailPassword, r.Step())

	fillRegistration(r)
	require.True(t, r.Advance())
	require.True(t, r.Advance())
	assert.Equal(t, StepUserRoles, r.Step())

	require.True(t, r.Retreat())
	assert.Equal(t, StepPersonalDetails, r.Step())
	require.True(t, r.Advance())
	assert.Equal(t, StepUserRoles, r.Step())
}

func TestRegistration_SkipOnlyOptionalSteps(t *testing.T) {
	r := NewRegistration(&spySigner{})
	fillRegistration(r)

	assert.False(t, r.Skip())
	assert.Equal(t, StepEmailPassword, r.Step())

	require.True(t, r.Advance())
	assert.False(t, r.Skip())
	require.True(t, r.Advance())
	assert.False(t, r.Skip())
	assert.Equal(t, StepUserRoles, r.Step())

	require.True(t, r.Advance())
	assert.Equal(t, StepAddress, r.Step())
	require.True(t, r.Skip())
	assert.Equal(t, StepProfilePicture, r.Step())
	require.True(t, r.Skip())
	assert.Equal(t, StepReview, r.Step())

	assert.False(t, r.Skip())
	assert.False(t, r.Advance())
	assert.Equal(t, StepReview, r.Step())
}

func TestRegistration_ToggleRole(t *testing.T) {
	r := NewRegistration(&spySigner{})

	require.NoError(t, r.ToggleRole(models.RoleBuyer))
	require.NoError(t, r.ToggleRole(models.RoleTenant))
	assert.Equal(t, []models.Role{models.RoleBuyer, models.RoleTenant}, r.Form().Roles)

	require.NoError(t, r.ToggleRole(models.RoleBuyer))
	assert.Equal(t, []models.Role{models.RoleTenant}, r.Form().Roles)

	assert.ErrorIs(t, r.ToggleRole(models.RoleAdmin), ErrRoleNotSelectable)
	assert.ErrorIs(t, r.ToggleRole(models.Role("ADMIN")), ErrRoleNotSelectable)
	assert.ErrorIs(t, r.ToggleRole(models.Role("overlord")), ErrRoleNotSelectable)
	assert.NotContains(t, r.Form().Roles, models.RoleAdmin)

	require.NoError(t, r.ToggleRole(models.Role("Seller")))
	assert.Equal(t, []models.Role{models.RoleTenant, models.RoleSeller}, r.Form().Roles)
}

func TestRegistration_UpdateCannotGrantAdmin(t *testing.T) {
	signer := &spySigner{}
	r := NewRegistration(signer)
	fillRegistration(r)
	r.Update(func(f *RegistrationForm) {
		f.Roles = []models.Role{models.RoleAdmin, models.RoleAgent, models.RoleAgent}
	})
	assert.Equal(t, []models.Role{models.RoleAgent}, r.Form().Roles)

	status := r.Submit(context.Background())
	require.Equal(t, viewmodel.StatusSuccess, status.Kind)
	assert.False(t, signer.user.HasRole(models.RoleAdmin))
}

func TestRegistration_SubmitWellFormed(t *testing.T) {
	signer := &spySigner{}
	r := NewRegistration(signer)
	fillRegistration(r)

	seen := []viewmodel.StatusKind{r.Status().Kind}
	r.Watch(func(s viewmodel.AuthStatus) { seen = append(seen, s.Kind) })

	status := r.Submit(context.Background())
	assert.Equal(t, viewmodel.StatusSuccess, status.Kind)
	assert.Equal(t, []viewmodel.StatusKind{viewmodel.StatusIdle, viewmodel.StatusLoading, viewmodel.StatusSuccess}, seen)

	require.Equal(t, 1, signer.calls)
	assert.Equal(t, "a@b.com", signer.email)
	assert.Equal(t, "x", signer.password)
	assert.Empty(t, signer.user.UUID, "the backend assigns the id")
	assert.Equal(t, "A", signer.user.FirstName)
	assert.Equal(t, "B", signer.user.LastName)
	assert.Equal(t, "123", signer.user.Phone)
	assert.Equal(t, []models.Role{DefaultRole}, signer.user.Roles)
}

func TestRegistration_SubmitThroughUserViewModel(t *testing.T) {
	signer := &spySigner{}
	vm := viewmodel.NewUserViewModel(&userServiceAdapter{signer}, nil, nil)
	r := NewRegistration(vm)
	fillRegistration(r)

	status := r.Submit(context.Background())
	assert.Equal(t, viewmodel.StatusSuccess, status.Kind)
	assert.Equal(t, viewmodel.StatusSuccess, vm.State().AuthStatus.Kind)
}

func TestRegistration_SubmitFailure(t *testing.T) {
	signer := &spySigner{err: &models.Failure{Op: "create account", Reason: models.ReasonConflict}}
	r := NewRegistration(signer)
	fillRegistration(r)

	status := r.Submit(context.Background())
	assert.Equal(t, viewmodel.StatusError, status.Kind)
	assert.Equal(t, "Already exists", status.Message)

	signer.err = errors.New("boom")
	status = r.Submit(context.Background())
	assert.Equal(t, viewmodel.StatusError, status.Kind)
	assert.Equal(t, "Something went wrong", status.Message)

	signer.err = nil
	assert.Equal(t, viewmodel.StatusSuccess, r.Submit(context.Background()).Kind)
	assert.Equal(t, 3, signer.calls)
}

func TestRegistration_SubmitIncompleteMakesNoCall(t *testing.T) {
	signer := &spySigner{}
	r := NewRegistration(signer)
	r.Update(func(f *RegistrationForm) { f.Email, f.Password = "a@b.com", "x" })

	status := r.Submit(context.Background())
	assert.Equal(t, viewmodel.StatusError, status.Kind)
	assert.Equal(t, errPersonalRequired.Error(), status.Message)
	assert.Zero(t, signer.calls)
}

func TestRegistration_Goto(t *testing.T) {
	r := NewRegistration(&spySigner{})
	assert.Error(t, r.Goto(StepReview))
	assert.Equal(t, StepEmailPassword, r.Step())

	fillRegistration(r)
	require.NoError(t, r.Goto(StepReview))
	assert.Equal(t, StepReview, r.Step())
	require.NoError(t, r.Goto(StepPersonalDetails))
	assert.Equal(t, StepPersonalDetails, r.Step())
	assert.Error(t, r.Goto("NOPE"))
}

// userServiceAdapter exposes a spySigner as a full viewmodel.UserService.
type userServiceAdapter struct{ *spySigner }

func (a *userServiceAdapter) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	return models.LoginResult{}, errors.New("not used")
}

func (a *userServiceAdapter) GetUser(ctx context.Context, id string) (models.User, error) {
	return models.User{}, errors.New("not used")
}

func (a *userServiceAdapter) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	return user, nil
}

func (a *userServiceAdapter) ListUsers(ctx context.Context) ([]models.User, error) {
	return nil, nil
}
