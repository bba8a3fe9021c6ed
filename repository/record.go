package repository

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate_hub/models"
)

// RecordRepository stores one kind of flat record in its own collection.
// References to other entities are not checked: a dangling id is the reader's problem.
type RecordRepository[T models.Record] struct {
	store  DocumentStore
	logger *zap.Logger
}

func NewRecordRepository[T models.Record](store DocumentStore, logger *zap.Logger) *RecordRepository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordRepository[T]{store: store, logger: logger}
}

func (r *RecordRepository[T]) collection() string {
	var zero T
	return zero.Collection()
}

func (r *RecordRepository[T]) Add(ctx context.Context, rec T) error {
	if rec.RecordID() == "" {
		return models.Fail("add "+r.collection(), models.ReasonValidation, errMissingID)
	}
	if err := r.store.Create(ctx, r.collection(), rec.RecordID(), rec); err != nil {
		return models.Fail("add "+r.collection(), models.ReasonInternal, err)
	}
	return nil
}

func (r *RecordRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	if err := r.store.Get(ctx, r.collection(), id, &rec); err != nil {
		var zero T
		return zero, models.Fail("get "+r.collection(), models.ReasonInternal, err)
	}
	return rec, nil
}

// ListBy returns records whose top-level field equals value, e.g. ListBy(ctx, "property_id", id).
func (r *RecordRepository[T]) ListBy(ctx context.Context, field, value string) ([]T, error) {
	docs, err := r.store.Find(ctx, r.collection(), map[string]any{field: value})
	if err != nil {
		return nil, models.Fail("list "+r.collection(), models.ReasonInternal, err)
	}
	return decodeAll[T](r.logger, r.collection(), docs), nil
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}
