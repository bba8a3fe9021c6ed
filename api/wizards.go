package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"estate_hub/models"
	"estate_hub/viewmodel"
	"estate_hub/wizard"
)

var (
	errNoDraft       = errors.New("draft not found")
	errUnknownAction = errors.New("unknown wizard action")
)

type statusView struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

func viewStatus(s viewmodel.AuthStatus) statusView {
	return statusView{Kind: s.Kind.String(), Message: s.Message}
}

type registrationView struct {
	ID         string                  `json:"id"`
	Step       string                  `json:"step"`
	CanAdvance bool                    `json:"can_advance"`
	Form       wizard.RegistrationForm `json:"form"`
	Status     statusView              `json:"status"`
}

func viewRegistration(d *wizard.Draft) registrationView {
	form := d.Registration.Form()
	form.Password = ""
	return registrationView{
		ID:         d.ID,
		Step:       d.Registration.Step(),
		CanAdvance: d.Registration.CanAdvance(),
		Form:       form,
		Status:     viewStatus(d.Registration.Status()),
	}
}

type propertyDraftView struct {
	ID           string              `json:"id"`
	Step         string              `json:"step"`
	Form         wizard.PropertyForm `json:"form"`
	ImageNames   []string            `json:"image_names"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Status       statusView          `json:"status"`
}

func viewPropertyDraft(d *wizard.Draft) propertyDraftView {
	form := d.Property.Form()
	names := make([]string, 0, len(form.Images))
	for _, img := range form.Images {
		names = append(names, img.Name)
	}
	form.Images = nil
	return propertyDraftView{
		ID:           d.ID,
		Step:         d.Property.Step(),
		Form:         form,
		ImageNames:   names,
		ErrorMessage: d.Property.ErrorMessage(),
		Status:       viewStatus(d.Property.Status()),
	}
}

func (s *Server) registrationDraft(w http.ResponseWriter, r *http.Request) (*wizard.Draft, bool) {
	d, ok := s.deps.Drafts.Get(chi.URLParam(r, "draftID"))
	if !ok || d.Registration == nil {
		Failure(w, models.Fail("registration draft", models.ReasonNotFound, errNoDraft))
		return nil, false
	}
	return d, true
}

// propertyDraft only returns drafts created by the caller.
func (s *Server) propertyDraft(w http.ResponseWriter, r *http.Request) (*wizard.Draft, bool) {
	claims, _ := claimsFrom(r.Context())
	d, ok := s.deps.Drafts.Get(chi.URLParam(r, "draftID"))
	if !ok || d.Property == nil || d.Owner != claims.UserID {
		Failure(w, models.Fail("property draft", models.ReasonNotFound, errNoDraft))
		return nil, false
	}
	return d, true
}

func (s *Server) handleRegistrationCreate(w http.ResponseWriter, r *http.Request) {
	d := &wizard.Draft{Registration: wizard.NewRegistration(s.userVM())}
	if _, err := s.deps.Drafts.PutLimited(d, s.deps.MaxRegistrationDrafts); err != nil {
		s.logger.Warn("registration draft refused", zap.Int("live", s.deps.Drafts.Len()), zap.Error(err))
		Error(w, http.StatusTooManyRequests, "too many registrations in progress, try again later")
		return
	}
	JSON(w, http.StatusCreated, viewRegistration(d))
}

func (s *Server) handleRegistrationGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registrationDraft(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, viewRegistration(d))
}

// handleRegistrationUpdate merges the fields present in the body into the form.
func (s *Server) handleRegistrationUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registrationDraft(w, r)
	if !ok {
		return
	}
	patch, err := readPatch(w, r, &wizard.RegistrationForm{})
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.Registration.Update(func(f *wizard.RegistrationForm) { _ = json.Unmarshal(patch, f) })
	JSON(w, http.StatusOK, viewRegistration(d))
}

func (s *Server) handleRegistrationToggleRole(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registrationDraft(w, r)
	if !ok {
		return
	}
	if err := d.Registration.ToggleRole(models.Role(chi.URLParam(r, "role"))); err != nil {
		Failure(w, models.Fail("toggle role", models.ReasonValidation, err))
		return
	}
	JSON(w, http.StatusOK, viewRegistration(d))
}

func (s *Server) handleRegistrationAction(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registrationDraft(w, r)
	if !ok {
		return
	}
	reg := d.Registration

	switch chi.URLParam(r, "action") {
	case "advance":
		reg.Advance()
	case "retreat":
		reg.Retreat()
	case "skip":
		reg.Skip()
	case "goto":
		if err := reg.Goto(r.URL.Query().Get("step")); err != nil {
			Failure(w, models.Fail("goto step", models.ReasonValidation, err))
			return
		}
	case "submit":
		status := reg.Submit(r.Context())
		view := viewRegistration(d)
		if status.Kind == viewmodel.StatusSuccess {
			s.deps.Drafts.Delete(d.ID)
			JSON(w, http.StatusCreated, view)
			return
		}
		JSON(w, http.StatusOK, view)
		return
	default:
		Failure(w, models.Fail("wizard action", models.ReasonValidation, errUnknownAction))
		return
	}
	JSON(w, http.StatusOK, viewRegistration(d))
}

func (s *Server) handlePropertyDraftCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	d := &wizard.Draft{Owner: claims.UserID, Property: wizard.NewAddProperty(s.propertyVM())}
	d.Property.Update(func(f *wizard.PropertyForm) { f.OwnerID = claims.UserID })
	s.deps.Drafts.Put(d)
	JSON(w, http.StatusCreated, viewPropertyDraft(d))
}

func (s *Server) handlePropertyDraftGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.propertyDraft(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, viewPropertyDraft(d))
}

// handlePropertyDraftUpdate merges body fields into the form. Images and the
// owner are managed by the server and ignored here.
func (s *Server) handlePropertyDraftUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.propertyDraft(w, r)
	if !ok {
		return
	}
	patch, err := readPatch(w, r, &wizard.PropertyForm{})
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.Property.Update(func(f *wizard.PropertyForm) {
		images, owner := f.Images, f.OwnerID
		_ = json.Unmarshal(patch, f)
		f.Images, f.OwnerID = images, owner
	})
	JSON(w, http.StatusOK, viewPropertyDraft(d))
}

func (s *Server) handlePropertyDraftAddImages(w http.ResponseWriter, r *http.Request) {
	d, ok := s.propertyDraft(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	images, err := readImages(r.MultipartForm.File["images"])
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, img := range images {
		d.Property.AddImage(img)
	}
	JSON(w, http.StatusOK, viewPropertyDraft(d))
}

func (s *Server) handlePropertyDraftRemoveImage(w http.ResponseWriter, r *http.Request) {
	d, ok := s.propertyDraft(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		Error(w, http.StatusBadRequest, "image index must be a number")
		return
	}
	d.Property.RemoveImage(i)
	JSON(w, http.StatusOK, viewPropertyDraft(d))
}

func (s *Server) handlePropertyDraftAction(w http.ResponseWriter, r *http.Request) {
	d, ok := s.propertyDraft(w, r)
	if !ok {
		return
	}
	wiz := d.Property

	switch chi.URLParam(r, "action") {
	case "advance":
		wiz.Advance()
	case "retreat":
		wiz.Retreat()
	case "skip":
		wiz.Skip()
	case "goto":
		if err := wiz.Goto(r.URL.Query().Get("step")); err != nil {
			Failure(w, models.Fail("goto step", models.ReasonValidation, err))
			return
		}
	case "submit":
		saved, err := wiz.Submit(r.Context())
		if err != nil {
			Failure(w, err)
			return
		}
		s.deps.Drafts.Delete(d.ID)
		JSON(w, http.StatusCreated, saved)
		return
	default:
		Failure(w, models.Fail("wizard action", models.ReasonValidation, errUnknownAction))
		return
	}
	JSON(w, http.StatusOK, viewPropertyDraft(d))
}
