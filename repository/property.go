package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate_hub/cache"
	"estate_hub/models"
)

const imagePrefix = "property_images/"

var (
	errMissingID      = errors.New("missing id")
	errSoldOnCreate   = errors.New("a new property cannot be sold")
	errEmptyTypeName  = errors.New("property type name is required")
	errSoldIsTerminal = errors.New("sold properties cannot be re-listed")
)

// Cache keys for the three browse lists; every property write drops all of them.
const (
	keyAllProperties    = "properties:all"
	keyListedProperties = "properties:listed"
	keySoldProperties   = "properties:sold"
	keyPropertyTypes    = "propertytype:all"
)

// UploadReport says which images of an AddProperty call made it to the blob store.
type UploadReport struct {
	Uploaded []string
	Failed   []string
}

// PropertyFilter narrows a property search. Zero fields are ignored.
type PropertyFilter struct {
	City         string
	PropertyType string
	Purpose      models.Purpose
	OnlyListed   bool
}

type PropertyRepository struct {
	store  DocumentStore
	blobs  BlobStore
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewPropertyRepository(store DocumentStore, blobs BlobStore, c *cache.Cache, logger *zap.Logger) *PropertyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyRepository{
		store:  store,
		blobs:  blobs,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// AddProperty uploads each image in order, keeping the URLs of the uploads that
// succeed, then creates the property document. Success depends only on the
// document write; an id that is already taken fails with ReasonConflict.
func (r *PropertyRepository) AddProperty(ctx context.Context, property models.Property, images []models.ImageFile) (models.Property, UploadReport, error) {
	var report UploadReport

	if property.IsSold {
		return models.Property{}, report, models.Fail("add property", models.ReasonValidation, errSoldOnCreate)
	}
	if property.UUID == "" {
		property.UUID = uuid.NewString()
	}

	for _, img := range images {
		url, err := r.uploadImage(ctx, img)
		if err != nil {
			r.logger.Warn("image upload failed, continuing",
				zap.String("property_id", property.UUID),
				zap.String("image", img.Name),
				zap.Error(err))
			report.Failed = append(report.Failed, img.Name)
			continue
		}
		report.Uploaded = append(report.Uploaded, url)
	}

	property.Images = append(append([]string{}, property.Images...), report.Uploaded...)
	if property.Appointments == nil {
		property.Appointments = []models.Appointment{}
	}

	if err := r.store.Create(ctx, models.CollectionProperties, property.UUID, property); err != nil {
		return models.Property{}, report, models.Fail("add property", models.ReasonInternal, err)
	}
	r.invalidateLists(ctx)

	r.logger.Info("property added",
		zap.String("property_id", property.UUID),
		zap.Int("images_uploaded", len(report.Uploaded)),
		zap.Int("images_failed", len(report.Failed)))
	return property, report, nil
}

func (r *PropertyRepository) uploadImage(ctx context.Context, img models.ImageFile) (string, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	key := imagePrefix + uuid.NewString() + ".jpg"
	return r.blobs.Upload(ctx, key, bytes.NewReader(img.Data), contentType)
}

func (r *PropertyRepository) GetProperty(ctx context.Context, id string) (models.Property, error) {
	var p models.Property
	if err := r.store.Get(ctx, models.CollectionProperties, id, &p); err != nil {
		return models.Property{}, models.Fail("get property", models.ReasonInternal, err)
	}
	return p, nil
}

// UpdateProperty replaces a stored property. A sold property stays sold and unlisted.
func (r *PropertyRepository) UpdateProperty(ctx context.Context, property models.Property) (models.Property, error) {
	if property.UUID == "" {
		return models.Property{}, models.Fail("update property", models.ReasonValidation, errMissingID)
	}
	return r.ModifyProperty(ctx, property.UUID, func(current *models.Property) error {
		listedAt := current.ListedAt
		*current = property
		current.ListedAt = listedAt
		return nil
	})
}

// ModifyProperty runs change on the stored property and writes the result back,
// with no other writer touching the document in between. The sold check runs
// against the locked version, so a property sold meanwhile cannot be re-listed.
// An error from change is returned with its reason kept, or ReasonValidation.
func (r *PropertyRepository) ModifyProperty(ctx context.Context, id string, change func(*models.Property) error) (models.Property, error) {
	if id == "" {
		return models.Property{}, models.Fail("update property", models.ReasonValidation, errMissingID)
	}

	var updated models.Property
	err := r.store.Update(ctx, models.CollectionProperties, id, func(raw json.RawMessage) (any, error) {
		var p models.Property
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, models.Fail("update property", models.ReasonInternal, err)
		}
		wasSold := p.IsSold
		if err := change(&p); err != nil {
			return nil, models.Fail("update property", models.ReasonValidation, err)
		}
		if wasSold && (!p.IsSold || p.IsListed) {
			return nil, models.Fail("update property", models.ReasonValidation, errSoldIsTerminal)
		}
		p.UUID = id
		p.UpdatedAt = r.now()
		updated = p
		return p, nil
	})
	if err != nil {
		return models.Property{}, models.Fail("update property", models.ReasonInternal, err)
	}
	r.invalidateLists(ctx)
	return updated, nil
}

func (r *PropertyRepository) GetAllProperties(ctx context.Context) ([]models.Property, error) {
	return r.cachedList(ctx, keyAllProperties, func() ([]models.Property, error) {
		docs, err := r.store.List(ctx, models.CollectionProperties)
		if err != nil {
			return nil, err
		}
		return decodeAll[models.Property](r.logger, models.CollectionProperties, docs), nil
	})
}

// ListProperties returns the properties currently on the market.
func (r *PropertyRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	return r.cachedList(ctx, keyListedProperties, func() ([]models.Property, error) {
		return r.find(ctx, map[string]any{"is_listed": true, "is_sold": false})
	})
}

func (r *PropertyRepository) ListSoldProperties(ctx context.Context) ([]models.Property, error) {
	return r.cachedList(ctx, keySoldProperties, func() ([]models.Property, error) {
		return r.find(ctx, map[string]any{"is_sold": true})
	})
}

// SearchProperties matches on exact field values. Results are cached briefly and
// are not invalidated on write.
func (r *PropertyRepository) SearchProperties(ctx context.Context, f PropertyFilter) ([]models.Property, error) {
	match := map[string]any{}
	params := map[string]string{}
	if f.City != "" {
		match["address"] = map[string]any{"city": f.City}
		params["city"] = f.City
	}
	if f.PropertyType != "" {
		match["property_type"] = f.PropertyType
		params["type"] = f.PropertyType
	}
	if f.Purpose != "" {
		match["purpose"] = f.Purpose
		params["purpose"] = string(f.Purpose)
	}
	if f.OnlyListed {
		match["is_listed"] = true
		match["is_sold"] = false
		params["listed"] = "true"
	}

	return r.cachedList(ctx, cache.QueryKey("properties:search", params), func() ([]models.Property, error) {
		return r.find(ctx, match)
	})
}

func (r *PropertyRepository) find(ctx context.Context, match map[string]any) ([]models.Property, error) {
	docs, err := r.store.Find(ctx, models.CollectionProperties, match)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Property](r.logger, models.CollectionProperties, docs), nil
}

func (r *PropertyRepository) cachedList(ctx context.Context, key string, load func() ([]models.Property, error)) ([]models.Property, error) {
	var cached []models.Property
	if hit, err := r.cache.Get(ctx, key, &cached); err != nil {
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	props, err := load()
	if err != nil {
		return nil, models.Fail("list "+key, models.ReasonInternal, err)
	}
	if err := r.cache.Set(ctx, key, props); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return props, nil
}

func (r *PropertyRepository) invalidateLists(ctx context.Context) {
	if err := r.cache.Invalidate(ctx, keyAllProperties, keyListedProperties, keySoldProperties); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// =============================================================================
// Property types
// =============================================================================

func (r *PropertyRepository) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	var cached []models.PropertyType
	if hit, err := r.cache.Get(ctx, keyPropertyTypes, &cached); err == nil && hit {
		return cached, nil
	}

	docs, err := r.store.List(ctx, models.CollectionPropertyTypes)
	if err != nil {
		return nil, models.Fail("list property types", models.ReasonInternal, err)
	}
	types := decodeAll[models.PropertyType](r.logger, models.CollectionPropertyTypes, docs)
	_ = r.cache.Set(ctx, keyPropertyTypes, types)
	return types, nil
}

// AddPropertyType creates a type unless one with the same name (ignoring case and
// spacing) exists, in which case the existing one is returned.
func (r *PropertyRepository) AddPropertyType(ctx context.Context, name string) (models.PropertyType, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return models.PropertyType{}, models.Fail("add property type", models.ReasonValidation, errEmptyTypeName)
	}

	existing, err := r.ListPropertyTypes(ctx)
	if err != nil {
		return models.PropertyType{}, err
	}
	for _, t := range existing {
		if models.NormalizeTypeName(t.Name) == models.NormalizeTypeName(name) {
			return t, nil
		}
	}

	pt := models.PropertyType{UUID: uuid.NewString(), Name: name}
	if err := r.store.Create(ctx, models.CollectionPropertyTypes, pt.UUID, pt); err != nil {
		return models.PropertyType{}, models.Fail("add property type", models.ReasonInternal, err)
	}
	_ = r.cache.Invalidate(ctx, keyPropertyTypes)
	return pt, nil
}
