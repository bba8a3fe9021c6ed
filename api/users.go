package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estate_hub/viewmodel"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// currentUser loads the caller's profile into a fresh user view model.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*viewmodel.UserViewModel, bool) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "not signed in")
		return nil, false
	}
	vm := s.userVM()
	if _, err := vm.LoadCurrentUser(r.Context(), claims.UserID); err != nil {
		Failure(w, err)
		return nil, false
	}
	return vm, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, vm.State().CurrentUser)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	user, err := vm.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"favorites": user.Favorites,
		"favorite":  user.IsFavorite(chi.URLParam(r, "id")),
	})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, s.propertyVM().ResolveFavorites(r.Context(), *vm.State().CurrentUser))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	users, err := vm.ListUsers(r.Context())
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, users)
}

func (s *Server) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	appts, err := s.deps.Appointments.ListBy(r.Context(), "user_id", claims.UserID)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, appts)
}

func (s *Server) handleMyInquiries(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	inqs, err := s.deps.Inquiries.ListBy(r.Context(), "user_id", claims.UserID)
	if err != nil {
		Failure(w, err)
		return
	}
	JSON(w, http.StatusOK, inqs)
}
