package viewmodel

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"estate_hub/models"
)

var (
	errNotSignedIn = errors.New("you need to sign in first")
	errNotAdmin    = errors.New("only administrators can do that")
)

// UserService is the user repository as seen by the view model.
type UserService interface {
	SignUp(ctx context.Context, email, password string, user models.User) (models.User, error)
	Login(ctx context.Context, email, password string) (models.LoginResult, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// SessionKeeper persists the signed-in identity across restarts.
type SessionKeeper interface {
	Start(token string, role models.Role) error
	End() error
}

type UserState struct {
	Loading     bool
	AuthStatus  AuthStatus
	CurrentUser *models.User
	Users       []models.User
	Err         error
}

type UserViewModel struct {
	users    UserService
	sessions SessionKeeper
	logger   *zap.Logger

	state    observable[UserState]
	inflight int
}

func NewUserViewModel(users UserService, sessions SessionKeeper, logger *zap.Logger) *UserViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &UserViewModel{users: users, sessions: sessions, logger: logger}
	vm.state.state = UserState{AuthStatus: Idle(), Users: []models.User{}}
	return vm
}

func (vm *UserViewModel) State() UserState {
	return vm.state.snapshot()
}

// Subscribe registers fn for every state change; the returned func unsubscribes.
func (vm *UserViewModel) Subscribe(fn func(UserState)) func() {
	return vm.state.subscribe(fn)
}

func (vm *UserViewModel) begin(status bool) func() {
	vm.state.update(func(s *UserState) {
		vm.inflight++
		s.Loading = true
		if status {
			s.AuthStatus = Loading()
		}
	})
	return func() {
		vm.state.update(func(s *UserState) {
			vm.inflight--
			s.Loading = vm.inflight > 0
		})
	}
}

// SignUp registers a new account and reports the outcome through AuthStatus.
func (vm *UserViewModel) SignUp(ctx context.Context, email, password string, user models.User) (models.User, error) {
	done := vm.begin(true)
	defer done()

	created, err := vm.users.SignUp(ctx, email, password, user)
	if err != nil {
		vm.logger.Warn("sign up failed", zap.String("reason", string(models.ReasonOf(err))), zap.Error(err))
		vm.state.update(func(s *UserState) {
			s.AuthStatus = ErrorFrom(err)
			s.Err = err
		})
		return models.User{}, err
	}

	vm.state.update(func(s *UserState) {
		s.AuthStatus = Success()
		s.Err = nil
	})
	return created, nil
}

// Login authenticates, starts the session and makes the user current.
func (vm *UserViewModel) Login(ctx context.Context, email, password string) (models.User, error) {
	done := vm.begin(true)
	defer done()

	res, err := vm.users.Login(ctx, email, password)
	if err == nil {
		if serr := vm.sessions.Start(res.Token, res.User.PrimaryRole()); serr != nil {
			err = models.Fail("login", models.ReasonInternal, serr)
		}
	}
	if err != nil {
		vm.state.update(func(s *UserState) {
			s.AuthStatus = ErrorFrom(err)
			s.Err = err
		})
		return models.User{}, err
	}

	user := res.User
	vm.state.update(func(s *UserState) {
		s.AuthStatus = Success()
		s.CurrentUser = &user
		s.Err = nil
	})
	return user, nil
}

// LoadCurrentUser makes the stored profile of id current, e.g. after a
// session was restored from a token.
func (vm *UserViewModel) LoadCurrentUser(ctx context.Context, id string) (models.User, error) {
	done := vm.begin(false)
	defer done()

	user, err := vm.users.GetUser(ctx, id)
	if err != nil {
		vm.state.update(func(s *UserState) {
			s.CurrentUser = nil
			s.Err = err
		})
		return models.User{}, err
	}
	vm.state.update(func(s *UserState) {
		s.CurrentUser = &user
		s.Err = nil
	})
	return user, nil
}

func (vm *UserViewModel) Logout() error {
	err := vm.sessions.End()
	vm.state.update(func(s *UserState) {
		s.CurrentUser = nil
		s.Users = []models.User{}
		s.AuthStatus = Idle()
		s.Err = err
	})
	return err
}

// ResetStatus returns AuthStatus to Idle, e.g. after an error was shown.
func (vm *UserViewModel) ResetStatus() {
	vm.state.update(func(s *UserState) { s.AuthStatus = Idle() })
}

// ToggleFavorite adds or removes propertyID from the current user's favorites.
func (vm *UserViewModel) ToggleFavorite(ctx context.Context, propertyID string) (models.User, error) {
	current := vm.State().CurrentUser
	if current == nil {
		err := models.Fail("toggle favorite", models.ReasonUnauthenticated, errNotSignedIn)
		vm.state.update(func(s *UserState) { s.Err = err })
		return models.User{}, err
	}

	done := vm.begin(false)
	defer done()

	user := *current
	if user.IsFavorite(propertyID) {
		favs := make([]string, 0, len(user.Favorites))
		for _, id := range user.Favorites {
			if id != propertyID {
				favs = append(favs, id)
			}
		}
		user.Favorites = favs
	} else {
		user.Favorites = append(append([]string{}, user.Favorites...), propertyID)
	}

	updated, err := vm.users.UpdateUser(ctx, user)
	if err != nil {
		vm.state.update(func(s *UserState) { s.Err = err })
		return *current, err
	}
	vm.state.update(func(s *UserState) {
		s.CurrentUser = &updated
		s.Err = nil
	})
	return updated, nil
}

// ListUsers loads every profile. Only administrators may call it; on failure
// the list in state is empty.
func (vm *UserViewModel) ListUsers(ctx context.Context) ([]models.User, error) {
	current := vm.State().CurrentUser
	var err error
	switch {
	case current == nil:
		err = models.Fail("list users", models.ReasonUnauthenticated, errNotSignedIn)
	case !current.HasRole(models.RoleAdmin):
		err = models.Fail("list users", models.ReasonPermission, errNotAdmin)
	}
	if err != nil {
		vm.state.update(func(s *UserState) {
			s.Users = []models.User{}
			s.Err = err
		})
		return []models.User{}, err
	}

	done := vm.begin(false)
	defer done()

	users, err := vm.users.ListUsers(ctx)
	if err != nil {
		vm.logger.Warn("list users failed", zap.Error(err))
		users = []models.User{}
	}
	vm.state.update(func(s *UserState) {
		s.Users = users
		s.Err = err
	})
	return users, err
}
