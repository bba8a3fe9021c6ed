package repository

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate_hub/models"
)

type UserRepository struct {
	store    DocumentStore
	identity IdentityProvider
	tokens   TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserRepository(store DocumentStore, identity IdentityProvider, tokens TokenIssuer, logger *zap.Logger) *UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{
		store:    store,
		identity: identity,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// SignUp creates the identity and then the profile document keyed by the new user id.
// If the profile write fails the identity is removed again.
func (r *UserRepository) SignUp(ctx context.Context, email, password string, user models.User) (models.User, error) {
	id, err := r.identity.CreateAccount(ctx, email, password)
	if err != nil {
		return models.User{}, models.Fail("sign up", models.ReasonInternal, err)
	}

	now := r.now()
	user.UUID = id
	user.Email = strings.TrimSpace(email)
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Favorites == nil {
		user.Favorites = []string{}
	}

	if err := r.store.Create(ctx, models.CollectionUsers, id, user); err != nil {
		if rbErr := r.identity.DeleteAccount(ctx, id); rbErr != nil {
			r.logger.Error("rollback of identity failed",
				zap.String("user_id", id),
				zap.Error(rbErr))
		}
		return models.User{}, models.Fail("sign up", models.ReasonInternal, err)
	}

	r.logger.Info("user registered", zap.String("user_id", id))
	return user, nil
}

// Login verifies credentials, loads the profile and issues a session token.
func (r *UserRepository) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	id, err := r.identity.Authenticate(ctx, email, password)
	if err != nil {
		return models.LoginResult{}, models.Fail("login", models.ReasonUnauthenticated, err)
	}

	user, err := r.GetUser(ctx, id)
	if err != nil {
		return models.LoginResult{}, models.Fail("login", models.ReasonInternal, err)
	}

	token, err := r.tokens.Issue(user.UUID, user.Email, string(user.PrimaryRole()))
	if err != nil {
		return models.LoginResult{}, models.Fail("login", models.ReasonInternal, err)
	}

	return models.LoginResult{Token: token, User: user}, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.store.Get(ctx, models.CollectionUsers, id, &user); err != nil {
		return models.User{}, models.Fail("get user", models.ReasonInternal, err)
	}
	return user, nil
}

// UpdateUser replaces the profile document; the uuid is never rewritten.
func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.UUID == "" {
		return models.User{}, models.Fail("update user", models.ReasonValidation, errMissingID)
	}
	user.UpdatedAt = r.now()
	if err := r.store.Put(ctx, models.CollectionUsers, user.UUID, user); err != nil {
		return models.User{}, models.Fail("update user", models.ReasonInternal, err)
	}
	return user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	docs, err := r.store.List(ctx, models.CollectionUsers)
	if err != nil {
		return nil, models.Fail("list users", models.ReasonInternal, err)
	}
	return decodeAll[models.User](r.logger, models.CollectionUsers, docs), nil
}
