package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"estate_hub/models"
	"estate_hub/storage"
)

var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password required")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// CredentialStore persists login records.
type CredentialStore interface {
	CreateCredential(ctx context.Context, c *storage.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*storage.Credential, error)
	DeleteCredential(ctx context.Context, userID string) error
}

// Provider is the identity provider: it owns credentials and hands out user ids.
type Provider struct {
	store CredentialStore
	cost  int
}

func NewProvider(store CredentialStore) *Provider {
	return &Provider{store: store, cost: bcrypt.DefaultCost}
}

// CreateAccount registers email/password and returns the new user id.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", models.Fail("create account", models.ReasonValidation, ErrInvalidEmail)
	}
	if password == "" {
		return "", models.Fail("create account", models.ReasonValidation, ErrPasswordRequired)
	}

	existing, err := p.store.GetCredentialByEmail(ctx, email)
	if err != nil {
		return "", models.Fail("create account", models.ReasonInternal, err)
	}
	if existing != nil {
		return "", models.Fail("create account", models.ReasonConflict, ErrEmailInUse)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", models.Fail("create account", models.ReasonValidation, err)
	}

	cred := &storage.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := p.store.CreateCredential(ctx, cred); err != nil {
		return "", models.Fail("create account", models.ReasonInternal, err)
	}
	return cred.UserID, nil
}

// Authenticate checks email/password and returns the user id.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (string, error) {
	cred, err := p.store.GetCredentialByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", models.Fail("authenticate", models.ReasonInternal, err)
	}
	if cred == nil {
		return "", models.Fail("authenticate", models.ReasonUnauthenticated, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", models.Fail("authenticate", models.ReasonUnauthenticated, ErrInvalidCredentials)
	}
	return cred.UserID, nil
}

// DeleteAccount removes a credential; used only to roll back a failed registration.
func (p *Provider) DeleteAccount(ctx context.Context, userID string) error {
	return p.store.DeleteCredential(ctx, userID)
}
