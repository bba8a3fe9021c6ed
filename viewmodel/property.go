package viewmodel

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate_hub/models"
	"estate_hub/repository"
)

var (
	errAlreadySold   = errors.New("this property has already been sold")
	errNotAvailable  = errors.New("this property is not available")
	errEmptyInquiry  = errors.New("please enter a message")
	errPastSlot      = errors.New("appointments must be in the future")
	errMissingPerson = errors.New("a user id is required")
)

// PropertyService is the property repository as seen by the view model.
type PropertyService interface {
	AddProperty(ctx context.Context, property models.Property, images []models.ImageFile) (models.Property, repository.UploadReport, error)
	GetProperty(ctx context.Context, id string) (models.Property, error)
	ModifyProperty(ctx context.Context, id string, change func(*models.Property) error) (models.Property, error)
	GetAllProperties(ctx context.Context) ([]models.Property, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	ListSoldProperties(ctx context.Context) ([]models.Property, error)
	SearchProperties(ctx context.Context, f repository.PropertyFilter) ([]models.Property, error)
	ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error)
	AddPropertyType(ctx context.Context, name string) (models.PropertyType, error)
}

type AppointmentStore interface {
	Add(ctx context.Context, a models.Appointment) error
}

type InquiryStore interface {
	Add(ctx context.Context, i models.Inquiry) error
}

type PropertyState struct {
	Loading       bool
	Properties    []models.Property
	Listed        []models.Property
	Sold          []models.Property
	SearchResults []models.Property
	Favorites     []models.Property
	Types         []models.PropertyType
	LastUpload    repository.UploadReport
	Err           error
}

type PropertyViewModel struct {
	properties   PropertyService
	appointments AppointmentStore
	inquiries    InquiryStore
	logger       *zap.Logger
	now          func() time.Time

	state    observable[PropertyState]
	inflight int
}

func NewPropertyViewModel(properties PropertyService, appointments AppointmentStore, inquiries InquiryStore, logger *zap.Logger) *PropertyViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &PropertyViewModel{
		properties:   properties,
		appointments: appointments,
		inquiries:    inquiries,
		logger:       logger,
		now:          time.Now,
	}
	vm.state.state = PropertyState{
		Properties:    []models.Property{},
		Listed:        []models.Property{},
		Sold:          []models.Property{},
		SearchResults: []models.Property{},
		Favorites:     []models.Property{},
		Types:         []models.PropertyType{},
	}
	return vm
}

func (vm *PropertyViewModel) State() PropertyState {
	return vm.state.snapshot()
}

func (vm *PropertyViewModel) Subscribe(fn func(PropertyState)) func() {
	return vm.state.subscribe(fn)
}

func (vm *PropertyViewModel) begin() func() {
	vm.state.update(func(s *PropertyState) {
		vm.inflight++
		s.Loading = true
	})
	return func() {
		vm.state.update(func(s *PropertyState) {
			vm.inflight--
			s.Loading = vm.inflight > 0
		})
	}
}

func (vm *PropertyViewModel) fail(err error) {
	vm.state.update(func(s *PropertyState) { s.Err = err })
}

// loadList runs fetch and stores the result with set. A failed fetch stores an
// empty list and records the failure; it never returns nil.
func (vm *PropertyViewModel) loadList(ctx context.Context, name string, fetch func(context.Context) ([]models.Property, error), set func(*PropertyState, []models.Property)) []models.Property {
	done := vm.begin()
	defer done()

	props, err := fetch(ctx)
	if err != nil {
		vm.logger.Warn("property list failed",
			zap.String("list", name),
			zap.String("reason", string(models.ReasonOf(err))),
			zap.Error(err))
		props = []models.Property{}
	}
	if props == nil {
		props = []models.Property{}
	}
	vm.state.update(func(s *PropertyState) {
		set(s, props)
		s.Err = err
	})
	return props
}

func (vm *PropertyViewModel) LoadAll(ctx context.Context) []models.Property {
	return vm.loadList(ctx, "all", vm.properties.GetAllProperties, func(s *PropertyState, p []models.Property) { s.Properties = p })
}

func (vm *PropertyViewModel) LoadListed(ctx context.Context) []models.Property {
	return vm.loadList(ctx, "listed", vm.properties.ListProperties, func(s *PropertyState, p []models.Property) { s.Listed = p })
}

func (vm *PropertyViewModel) LoadSold(ctx context.Context) []models.Property {
	return vm.loadList(ctx, "sold", vm.properties.ListSoldProperties, func(s *PropertyState, p []models.Property) { s.Sold = p })
}

func (vm *PropertyViewModel) Search(ctx context.Context, f repository.PropertyFilter) []models.Property {
	fetch := func(ctx context.Context) ([]models.Property, error) {
		return vm.properties.SearchProperties(ctx, f)
	}
	return vm.loadList(ctx, "search", fetch, func(s *PropertyState, p []models.Property) { s.SearchResults = p })
}

// AddProperty uploads images best-effort and persists the property. It
// succeeds whenever the document write succeeds.
func (vm *PropertyViewModel) AddProperty(ctx context.Context, property models.Property, images []models.ImageFile) (models.Property, error) {
	done := vm.begin()
	defer done()

	saved, report, err := vm.properties.AddProperty(ctx, property, images)
	if err != nil {
		vm.state.update(func(s *PropertyState) {
			s.LastUpload = report
			s.Err = err
		})
		return models.Property{}, err
	}

	vm.state.update(func(s *PropertyState) {
		s.LastUpload = report
		s.Properties = upsert(s.Properties, saved)
		if saved.Available() {
			s.Listed = upsert(s.Listed, saved)
		}
		s.Err = nil
	})
	return saved, nil
}

func (vm *PropertyViewModel) LoadPropertyTypes(ctx context.Context) []models.PropertyType {
	done := vm.begin()
	defer done()

	types, err := vm.properties.ListPropertyTypes(ctx)
	if err != nil || types == nil {
		types = []models.PropertyType{}
	}
	vm.state.update(func(s *PropertyState) {
		s.Types = types
		s.Err = err
	})
	return types
}

func (vm *PropertyViewModel) AddPropertyType(ctx context.Context, name string) (models.PropertyType, error) {
	done := vm.begin()
	defer done()

	pt, err := vm.properties.AddPropertyType(ctx, name)
	if err != nil {
		vm.fail(err)
		return models.PropertyType{}, err
	}
	vm.state.update(func(s *PropertyState) {
		for _, t := range s.Types {
			if t.UUID == pt.UUID {
				return
			}
		}
		s.Types = append(append([]models.PropertyType{}, s.Types...), pt)
		s.Err = nil
	})
	return pt, nil
}

// MarkSold takes a property off the market for good.
func (vm *PropertyViewModel) MarkSold(ctx context.Context, id string) (models.Property, error) {
	return vm.mutate(ctx, "mark sold", id, func(p *models.Property) error {
		if p.IsSold {
			return errAlreadySold
		}
		p.IsSold = true
		p.IsListed = false
		return nil
	})
}

// SetListed publishes or withdraws a listing. Sold properties cannot be re-listed.
func (vm *PropertyViewModel) SetListed(ctx context.Context, id string, listed bool) (models.Property, error) {
	return vm.mutate(ctx, "set listed", id, func(p *models.Property) error {
		if p.IsSold && listed {
			return errAlreadySold
		}
		p.IsListed = listed
		return nil
	})
}

// mutate applies change to the stored property under the store's write guard,
// so the checks in change see the latest version.
func (vm *PropertyViewModel) mutate(ctx context.Context, op, id string, change func(*models.Property) error) (models.Property, error) {
	done := vm.begin()
	defer done()

	updated, err := vm.properties.ModifyProperty(ctx, id, func(p *models.Property) error {
		if cerr := change(p); cerr != nil {
			return models.Fail(op, models.ReasonValidation, cerr)
		}
		return nil
	})
	if err != nil {
		vm.fail(err)
		return models.Property{}, err
	}
	vm.state.update(func(s *PropertyState) { applyChange(s, updated) })
	return updated, nil
}

// BookAppointment schedules a viewing. The appointment is embedded in the
// property under the write guard, which re-checks availability, and then stored
// in its own collection.
func (vm *PropertyViewModel) BookAppointment(ctx context.Context, propertyID, userID string, at time.Time, notes string) (models.Appointment, error) {
	now := vm.now()
	var appt models.Appointment

	if userID == "" {
		err := models.Fail("book appointment", models.ReasonValidation, errMissingPerson)
		vm.fail(err)
		return appt, err
	}
	if !at.After(now) {
		err := models.Fail("book appointment", models.ReasonValidation, errPastSlot)
		vm.fail(err)
		return appt, err
	}

	done := vm.begin()
	defer done()

	p, err := vm.properties.GetProperty(ctx, propertyID)
	if err != nil {
		vm.fail(err)
		return appt, err
	}
	if !p.Available() {
		err := models.Fail("book appointment", models.ReasonValidation, errNotAvailable)
		vm.fail(err)
		return appt, err
	}

	appt = models.Appointment{
		UUID:        uuid.NewString(),
		PropertyID:  propertyID,
		UserID:      userID,
		ScheduledAt: at,
		Status:      models.AppointmentPending,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   now,
	}
	updated, err := vm.properties.ModifyProperty(ctx, propertyID, func(p *models.Property) error {
		if !p.Available() {
			return models.Fail("book appointment", models.ReasonValidation, errNotAvailable)
		}
		p.Appointments = append(append([]models.Appointment{}, p.Appointments...), appt)
		return nil
	})
	if err != nil {
		vm.fail(err)
		return models.Appointment{}, err
	}

	if err := vm.appointments.Add(ctx, appt); err != nil {
		vm.unembed(ctx, propertyID, appt.UUID)
		vm.fail(err)
		return models.Appointment{}, err
	}
	vm.state.update(func(s *PropertyState) { applyChange(s, updated) })
	return appt, nil
}

// unembed drops an appointment whose record could not be stored.
func (vm *PropertyViewModel) unembed(ctx context.Context, propertyID, appointmentID string) {
	_, err := vm.properties.ModifyProperty(ctx, propertyID, func(p *models.Property) error {
		kept := make([]models.Appointment, 0, len(p.Appointments))
		for _, a := range p.Appointments {
			if a.UUID != appointmentID {
				kept = append(kept, a)
			}
		}
		p.Appointments = kept
		return nil
	})
	if err != nil {
		vm.logger.Warn("orphaned appointment left in property",
			zap.String("property_id", propertyID),
			zap.String("appointment_id", appointmentID),
			zap.Error(err))
	}
}

func (vm *PropertyViewModel) SubmitInquiry(ctx context.Context, propertyID, userID, email, message string) (models.Inquiry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		err := models.Fail("submit inquiry", models.ReasonValidation, errEmptyInquiry)
		vm.fail(err)
		return models.Inquiry{}, err
	}

	done := vm.begin()
	defer done()

	inq := models.Inquiry{
		UUID:       uuid.NewString(),
		PropertyID: propertyID,
		UserID:     userID,
		Email:      strings.TrimSpace(email),
		Message:    message,
		CreatedAt:  vm.now(),
	}
	if err := vm.inquiries.Add(ctx, inq); err != nil {
		vm.fail(err)
		return models.Inquiry{}, err
	}
	return inq, nil
}

// ResolveFavorites loads the user's favorite properties. Ids that no longer
// resolve are skipped.
func (vm *PropertyViewModel) ResolveFavorites(ctx context.Context, user models.User) []models.Property {
	done := vm.begin()
	defer done()

	out := make([]models.Property, 0, len(user.Favorites))
	var lastErr error
	for _, id := range user.Favorites {
		p, err := vm.properties.GetProperty(ctx, id)
		if err != nil {
			if models.ReasonOf(err) != models.ReasonNotFound {
				lastErr = err
			}
			vm.logger.Debug("favorite not resolved", zap.String("property_id", id), zap.Error(err))
			continue
		}
		out = append(out, p)
	}

	vm.state.update(func(s *PropertyState) {
		s.Favorites = out
		s.Err = lastErr
	})
	return out
}

func applyChange(s *PropertyState, p models.Property) {
	s.Properties = upsert(s.Properties, p)
	if p.Available() {
		s.Listed = upsert(s.Listed, p)
	} else {
		s.Listed = without(s.Listed, p.UUID)
	}
	if p.IsSold {
		s.Sold = upsert(s.Sold, p)
	}
	s.Err = nil
}

// upsert returns a copy of list with p replacing the entry of the same id, or appended.
func upsert(list []models.Property, p models.Property) []models.Property {
	out := make([]models.Property, 0, len(list)+1)
	found := false
	for _, existing := range list {
		if existing.UUID == p.UUID {
			out = append(out, p)
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, p)
	}
	return out
}

func without(list []models.Property, id string) []models.Property {
	out := make([]models.Property, 0, len(list))
	for _, p := range list {
		if p.UUID != id {
			out = append(out, p)
		}
	}
	return out
}
