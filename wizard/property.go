package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"estate_hub/models"
	"estate_hub/viewmodel"
)

const (
	StepBasicDetails = "BASIC_DETAILS"
	StepContactInfo  = "CONTACT_INFO"
	StepPurpose      = "PURPOSE"
	// StepAddress is shared with the registration table.
	StepPropertyType = "PROPERTY_TYPE"
	StepAmenities    = "AMENITIES"
	StepImages       = "IMAGES"
)

var (
	errBasicDetails = errors.New("title, description and a price above zero are required")
	errContactInfo  = errors.New("contact name and phone are required")
	errAddress      = errors.New("street and city are required")
	errPropertyType = errors.New("please choose a property type")
	errImages       = errors.New("please add at least one image")
	errBadPurpose   = errors.New("purpose must be sale or rent")
)

type PropertyForm struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Price        float64            `json:"price"`
	Currency     string             `json:"currency"`
	Bedrooms     int                `json:"bedrooms"`
	Bathrooms    int                `json:"bathrooms"`
	Area         float64            `json:"area"`
	ContactInfo  models.ContactInfo `json:"contact_info"`
	Purpose      models.Purpose     `json:"purpose"`
	Address      models.Address     `json:"address"`
	PropertyType string             `json:"property_type"`
	Amenities    models.Amenities   `json:"amenities"`
	Images       []models.ImageFile `json:"images,omitempty"`
	OwnerID      string             `json:"owner_id,omitempty"`
}

func propertySteps() []Step[PropertyForm] {
	return []Step[PropertyForm]{
		{Name: StepBasicDetails, Validate: func(f PropertyForm) error {
			if blank(f.Title) || blank(f.Description) || !(f.Price > 0) {
				return errBasicDetails
			}
			return nil
		}},
		{Name: StepContactInfo, Validate: func(f PropertyForm) error {
			if blank(f.ContactInfo.Name) || blank(f.ContactInfo.Phone) {
				return errContactInfo
			}
			return nil
		}},
		{Name: StepPurpose},
		{Name: StepAddress, Validate: func(f PropertyForm) error {
			if blank(f.Address.Street) || blank(f.Address.City) {
				return errAddress
			}
			return nil
		}},
		{Name: StepPropertyType, Validate: func(f PropertyForm) error {
			if blank(f.PropertyType) {
				return errPropertyType
			}
			return nil
		}},
		{Name: StepAmenities},
		{Name: StepImages, Validate: func(f PropertyForm) error {
			if len(f.Images) == 0 {
				return errImages
			}
			return nil
		}},
		{Name: StepReview},
	}
}

// PropertyAdder persists a listing; *viewmodel.PropertyViewModel satisfies it.
type PropertyAdder interface {
	AddProperty(ctx context.Context, property models.Property, images []models.ImageFile) (models.Property, error)
}

// AddProperty is the listing-creation wizard. No step can be skipped.
type AddProperty struct {
	adder PropertyAdder
	now   func() time.Time

	mu           sync.Mutex
	form         PropertyForm
	machine      *Machine[PropertyForm]
	status       viewmodel.AuthStatus
	errorMessage string
}

// NewAddProperty creates an add-property wizard on the BASIC_DETAILS step.
func NewAddProperty(adder PropertyAdder) *AddProperty {
	return &AddProperty{
		adder:   adder,
		now:     time.Now,
		machine: NewMachine(propertySteps()),
		status:  viewmodel.Idle(),
	}
}

func (w *AddProperty) Step() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.machine.Current().Name
}

func (w *AddProperty) Form() PropertyForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.form
	f.Images = append([]models.ImageFile{}, w.form.Images...)
	return f
}

func (w *AddProperty) Update(fn func(*PropertyForm)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.form)
}

// AddImage appends a picked image to the form.
func (w *AddProperty) AddImage(img models.ImageFile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Images = append(append([]models.ImageFile{}, w.form.Images...), img)
}

// RemoveImage drops the image at index i; out-of-range indexes are ignored.
func (w *AddProperty) RemoveImage(i int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.form.Images) {
		return
	}
	w.form.Images = append(append([]models.ImageFile{}, w.form.Images[:i]...), w.form.Images[i+1:]...)
}

// ErrorMessage is the last validation or submission message shown to the user.
func (w *AddProperty) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errorMessage
}

func (w *AddProperty) Status() viewmodel.AuthStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Advance moves forward when the current step validates, otherwise it records
// the step's message and stays put.
func (w *AddProperty) Advance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	moved, err := w.machine.Advance(w.form)
	if err != nil {
		w.errorMessage = err.Error()
		return false
	}
	w.errorMessage = ""
	return moved
}

func (w *AddProperty) Retreat() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorMessage = ""
	return w.machine.Retreat()
}

// Skip always refuses: every add-property step is mandatory.
func (w *AddProperty) Skip() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.machine.Skip()
}

func (w *AddProperty) Goto(step string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.machine.Goto(step, w.form)
}

// Submit validates every step and, if all pass, hands the assembled property
// to the adder. A validation failure sets ErrorMessage and performs no I/O.
func (w *AddProperty) Submit(ctx context.Context) (models.Property, error) {
	w.mu.Lock()
	if w.status.Kind == viewmodel.StatusLoading {
		w.mu.Unlock()
		return models.Property{}, models.Fail("submit property", models.ReasonConflict, errors.New("submission already in progress"))
	}
	form := w.form
	form.Images = append([]models.ImageFile{}, w.form.Images...)
	if _, err := w.machine.ValidateAll(form); err != nil {
		w.errorMessage = err.Error()
		w.status = viewmodel.Error(err.Error())
		w.mu.Unlock()
		return models.Property{}, models.Fail("submit property", models.ReasonValidation, err)
	}
	property, err := form.property(w.now())
	if err != nil {
		w.errorMessage = err.Error()
		w.status = viewmodel.Error(err.Error())
		w.mu.Unlock()
		return models.Property{}, models.Fail("submit property", models.ReasonValidation, err)
	}
	w.errorMessage = ""
	w.status = viewmodel.Loading()
	w.mu.Unlock()

	saved, err := w.adder.AddProperty(ctx, property, form.Images)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.errorMessage = models.Message(err)
		w.status = viewmodel.ErrorFrom(err)
		return models.Property{}, err
	}
	w.status = viewmodel.Success()
	return saved, nil
}

// property assembles a new listing. An empty purpose means sale; anything
// other than sale or rent is rejected here rather than at the PURPOSE step.
func (f PropertyForm) property(now time.Time) (models.Property, error) {
	purpose := f.Purpose
	switch purpose {
	case "":
		purpose = models.PurposeSale
	case models.PurposeSale, models.PurposeRent:
	default:
		return models.Property{}, errBadPurpose
	}
	return models.Property{
		UUID:         uuid.NewString(),
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		Price:        f.Price,
		Currency:     strings.ToUpper(strings.TrimSpace(f.Currency)),
		Purpose:      purpose,
		Bedrooms:     f.Bedrooms,
		Bathrooms:    f.Bathrooms,
		Area:         f.Area,
		PropertyType: strings.TrimSpace(f.PropertyType),
		Address:      f.Address,
		ContactInfo:  f.ContactInfo,
		Amenities:    f.Amenities,
		Images:       []string{},
		IsListed:     true,
		IsSold:       false,
		OwnerID:      f.OwnerID,
		ListedAt:     now,
		UpdatedAt:    now,
		Appointments: []models.Appointment{},
	}, nil
}
