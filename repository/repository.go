// Package repository translates domain operations into document store,
// blob store and identity provider calls. Every method returns a
// *models.Failure on error so callers can tell causes apart.
package repository

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"
)

// DocumentStore is the remote document database, addressed by collection and id.
type DocumentStore interface {
	Put(ctx context.Context, collection, id string, doc any) error
	Create(ctx context.Context, collection, id string, doc any) error
	Get(ctx context.Context, collection, id string, dest any) error
	// Update applies change to the stored document while holding it against
	// other writers.
	Update(ctx context.Context, collection, id string, change func(current json.RawMessage) (any, error)) error
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Find(ctx context.Context, collection string, match map[string]any) ([]json.RawMessage, error)
}

// BlobStore stores binary objects and returns a durable download URL.
type BlobStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// IdentityProvider owns credentials and issues user ids.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// TokenIssuer mints session tokens after login.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

// decodeAll unmarshals raw documents, skipping ones that no longer match the record shape.
func decodeAll[T any](logger *zap.Logger, collection string, docs []json.RawMessage) []T {
	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("skipping malformed document",
				zap.String("collection", collection),
				zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}
