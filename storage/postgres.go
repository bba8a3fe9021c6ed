package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate_hub/models"
)

// PostgresStore is the remote document store: one JSONB table addressed by
// (collection, id), plus the credentials table used by the identity provider.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	);

	CREATE TABLE IF NOT EXISTS credentials (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection, created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return classify("migrate", err)
	}
	return nil
}

// =============================================================================
// Documents
// =============================================================================

// Put writes doc under (collection, id), replacing any previous version.
func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.Fail("put "+collection, models.ReasonValidation, err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, collection, id, string(data)); err != nil {
		return classify("put "+collection, err)
	}
	return nil
}

// Create writes doc only if (collection, id) is free; otherwise it fails with ReasonConflict.
func (s *PostgresStore) Create(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.Fail("create "+collection, models.ReasonValidation, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)`

	if _, err := s.pool.Exec(ctx, query, collection, id, string(data)); err != nil {
		return classify("create "+collection, err)
	}
	return nil
}

// Update locks the document row, hands its current JSON to change and writes
// back whatever change returns. Concurrent updates of one document run one at a
// time. An error from change aborts the transaction and is returned unchanged.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, change func(current json.RawMessage) (any, error)) error {
	op := "update " + collection
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&current)
	if err != nil {
		return classify(op, err)
	}

	doc, err := change(json.RawMessage(current))
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return models.Fail(op, models.ReasonValidation, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET data = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, string(data),
	); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(op, err)
	}
	return nil
}

// Get decodes the document into dest. A missing document fails with ReasonNotFound.
func (s *PostgresStore) Get(ctx context.Context, collection, id string, dest any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		return classify("get "+collection, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return models.Fail("get "+collection, models.ReasonInternal, err)
	}
	return nil
}

// List returns every document of a collection in creation order.
func (s *PostgresStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, classify("list "+collection, err)
	}
	return collectDocs("list "+collection, rows)
}

// Find returns documents whose JSON contains match (JSONB @> containment).
func (s *PostgresStore) Find(ctx context.Context, collection string, match map[string]any) ([]json.RawMessage, error) {
	filter, err := json.Marshal(match)
	if err != nil {
		return nil, models.Fail("find "+collection, models.ReasonValidation, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY created_at, id`,
		collection, string(filter),
	)
	if err != nil {
		return nil, classify("find "+collection, err)
	}
	return collectDocs("find "+collection, rows)
}

func collectDocs(op string, rows pgx.Rows) ([]json.RawMessage, error) {
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, classify(op, err)
		}
		docs = append(docs, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return docs, nil
}

// =============================================================================
// Credentials
// =============================================================================

// Credential is a login record owned by the identity provider.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (s *PostgresStore) CreateCredential(ctx context.Context, c *Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (user_id, email, password_hash, created_at)
		VALUES ($1, LOWER($2), $3, $4)`,
		c.UserID, c.Email, c.PasswordHash, c.CreatedAt)
	if err != nil {
		return classify("create credential", err)
	}
	return nil
}

func (s *PostgresStore) GetCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash, created_at
		FROM credentials WHERE email = LOWER($1)`, email,
	).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get credential", err)
	}
	return &c, nil
}

// DeleteCredential rolls back a sign-up whose profile write failed.
func (s *PostgresStore) DeleteCredential(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID); err != nil {
		return classify("delete credential", err)
	}
	return nil
}
