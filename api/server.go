// Package api exposes the listing core over HTTP. Handlers drive the same view
// models and wizards a client app would, one view model per request.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"estate_hub/models"
	"estate_hub/viewmodel"
	"estate_hub/wizard"
)

type AppointmentRecords interface {
	viewmodel.AppointmentStore
	ListBy(ctx context.Context, field, value string) ([]models.Appointment, error)
}

type InquiryRecords interface {
	viewmodel.InquiryStore
	ListBy(ctx context.Context, field, value string) ([]models.Inquiry, error)
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Users        viewmodel.UserService
	Properties   viewmodel.PropertyService
	Appointments AppointmentRecords
	Inquiries    InquiryRecords
	Tokens       TokenValidator
	Drafts       *wizard.Registry
	Logger       *zap.Logger

	// MaxRegistrationDrafts caps anonymous sign-up drafts; zero means no cap.
	MaxRegistrationDrafts int
}

type Server struct {
	deps   Deps
	logger *zap.Logger
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Drafts == nil {
		deps.Drafts = wizard.NewRegistry()
	}
	return &Server{deps: deps, logger: deps.Logger}
}

// nullSessions satisfies viewmodel.SessionKeeper for server-side view models:
// the HTTP client keeps its own token.
type nullSessions struct{}

func (nullSessions) Start(string, models.Role) error { return nil }
func (nullSessions) End() error                      { return nil }

func (s *Server) userVM() *viewmodel.UserViewModel {
	return viewmodel.NewUserViewModel(s.deps.Users, nullSessions{}, s.logger)
}

func (s *Server) propertyVM() *viewmodel.PropertyViewModel {
	return viewmodel.NewPropertyViewModel(s.deps.Properties, s.deps.Appointments, s.deps.Inquiries, s.logger)
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// ---- Public ----
	r.Post("/auth/login", s.handleLogin)
	r.Get("/properties", s.handleListListed)
	r.Get("/properties/sold", s.handleListSold)
	r.Get("/properties/search", s.handleSearch)
	r.Get("/properties/{id}", s.handleGetProperty)
	r.Get("/property-types", s.handleListTypes)

	r.Route("/wizards/registration", func(r chi.Router) {
		r.Post("/", s.handleRegistrationCreate)
		r.Get("/{draftID}", s.handleRegistrationGet)
		r.Patch("/{draftID}", s.handleRegistrationUpdate)
		r.Post("/{draftID}/roles/{role}", s.handleRegistrationToggleRole)
		r.Post("/{draftID}/{action}", s.handleRegistrationAction)
	})

	// ---- Protected ----
	r.Group(func(pr chi.Router) {
		pr.Use(RequireAuth(s.deps.Tokens))

		pr.Get("/me", s.handleMe)
		pr.Get("/me/favorites", s.handleListFavorites)
		pr.Post("/me/favorites/{id}", s.handleToggleFavorite)
		pr.Get("/me/appointments", s.handleMyAppointments)
		pr.Get("/me/inquiries", s.handleMyInquiries)

		pr.Post("/properties", s.handleAddProperty)
		pr.Post("/properties/{id}/sold", s.handleMarkSold)
		pr.Put("/properties/{id}/listed", s.handleSetListed)
		pr.Post("/properties/{id}/appointments", s.handleBookAppointment)
		pr.Post("/properties/{id}/inquiries", s.handleSubmitInquiry)
		pr.Post("/property-types", s.handleAddType)

		pr.Route("/wizards/property", func(r chi.Router) {
			r.Post("/", s.handlePropertyDraftCreate)
			r.Get("/{draftID}", s.handlePropertyDraftGet)
			r.Patch("/{draftID}", s.handlePropertyDraftUpdate)
			r.Post("/{draftID}/images", s.handlePropertyDraftAddImages)
			r.Delete("/{draftID}/images/{index}", s.handlePropertyDraftRemoveImage)
			r.Post("/{draftID}/{action}", s.handlePropertyDraftAction)
		})

		pr.With(RequireRole(models.RoleAdmin)).Get("/users", s.handleListUsers)
		pr.With(RequireRole(models.RoleAdmin)).Get("/properties/all", s.handleListAll)
	})

	return r
}

// HTTPServer wraps Routes with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
