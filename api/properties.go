package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"estate_hub/auth"
	"estate_hub/models"
	"estate_hub/repository"
	"estate_hub/viewmodel"
	"estate_hub/wizard"
)

const (
	maxUploadBytes = 32 << 20
	maxImageBytes  = 8 << 20
)

var errNotOwner = errors.New("only the owner or an admin can change this listing")

// writeList answers with the list a view model produced, or with the failure it
// recorded while producing it.
func writeList(w http.ResponseWriter, vm *viewmodel.PropertyViewModel, list []models.Property) {
	if err := vm.State().Err; err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, list)
}

func (s *Server) handleListListed(w http.ResponseWriter, r *http.Request) {
	vm := s.propertyVM()
	writeList(w, vm, vm.LoadListed(r.Context()))
}

func (s *Server) handleListSold(w http.ResponseWriter, r *http.Request) {
	vm := s.propertyVM()
	writeList(w, vm, vm.LoadSold(r.Context()))
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	vm := s.propertyVM()
	writeList(w, vm, vm.LoadAll(r.Context()))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.PropertyFilter{
		City:         strings.TrimSpace(q.Get("city")),
		PropertyType: strings.TrimSpace(q.Get("type")),
		Purpose:      models.Purpose(q.Get("purpose")),
		OnlyListed:   q.Get("all") != "true",
	}
	vm := s.propertyVM()
	writeList(w, vm, vm.Search(r.Context(), f))
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Properties.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	vm := s.propertyVM()
	types := vm.LoadPropertyTypes(r.Context())
	if err := vm.State().Err; err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, types)
}

type addTypeRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddType(w http.ResponseWriter, r *http.Request) {
	var req addTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pt, err := s.propertyVM().AddPropertyType(r.Context(), req.Name)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusCreated, pt)
}

// handleAddProperty accepts a multipart form: a "property" JSON part holding
// the listing fields and any number of "images" file parts. The listing is
// built server-side through the add-property step table, so the id, flags and
// timestamps never come from the client.
func (s *Server) handleAddProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var form wizard.PropertyForm
	if err := json.Unmarshal([]byte(r.FormValue("property")), &form); err != nil {
		Error(w, http.StatusBadRequest, "invalid property JSON")
		return
	}

	images, err := readImages(r.MultipartForm.File["images"])
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	form.Images = images
	form.OwnerID = claims.UserID

	vm := s.propertyVM()
	flow := wizard.NewAddProperty(vm)
	flow.Update(func(f *wizard.PropertyForm) { *f = form })
	saved, err := flow.Submit(r.Context())
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]any{
		"property":      saved,
		"failed_images": vm.State().LastUpload.Failed,
	})
}

func readImages(headers []*multipart.FileHeader) ([]models.ImageFile, error) {
	images := make([]models.ImageFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageBytes {
			return nil, errors.New("image " + fh.Filename + " is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, models.ImageFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

// ownsProperty lets the listing's owner and admins through.
func (s *Server) ownsProperty(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id string) bool {
	if claims.Role == string(models.RoleAdmin) {
		return true
	}
	p, err := s.deps.Properties.GetProperty(r.Context(), id)
	if err != nil {
		Failure(w, err)
		return false
	}
	if p.OwnerID != "" && p.OwnerID == claims.UserID {
		return true
	}
	Failure(w, models.Fail("property access", models.ReasonPermission, errNotOwner))
	return false
}

func (s *Server) handleMarkSold(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id := chi.URLParam(r, "id")
	if !s.ownsProperty(w, r, claims, id) {
		return
	}
	p, err := s.propertyVM().MarkSold(r.Context(), id)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

type setListedRequest struct {
	Listed bool `json:"listed"`
}

func (s *Server) handleSetListed(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	var req setListedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.ownsProperty(w, r, claims, id) {
		return
	}
	p, err := s.propertyVM().SetListed(r.Context(), id, req.Listed)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

type appointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req appointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := s.propertyVM().BookAppointment(r.Context(), chi.URLParam(r, "id"), claims.UserID, req.ScheduledAt, req.Notes)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusCreated, appt)
}

type inquiryRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req inquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inq, err := s.propertyVM().SubmitInquiry(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Email, req.Message)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusCreated, inq)
}
