package models

import "time"

// Record is implemented by every flat record that lives in its own collection.
type Record interface {
	RecordID() string
	Collection() string
}

// Appointment is embedded in a Property and mirrored in the "appointments" collection.
type Appointment struct {
	UUID        string            `json:"uuid"`
	PropertyID  string            `json:"property_id"`
	UserID      string            `json:"user_id"`
	AgentID     string            `json:"agent_id,omitempty"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Inquiry is a buyer or tenant question about a listing
type Inquiry struct {
	UUID       string    `json:"uuid"`
	PropertyID string    `json:"property_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	Responded  bool      `json:"responded"`
	CreatedAt  time.Time `json:"created_at"`
}

// Lease links a tenant and a landlord to a rented property
type Lease struct {
	UUID        string    `json:"uuid"`
	PropertyID  string    `json:"property_id"`
	TenantID    string    `json:"tenant_id"`
	LandlordID  string    `json:"landlord_id"`
	MonthlyRent float64   `json:"monthly_rent"`
	Deposit     float64   `json:"deposit"`
	Currency    string    `json:"currency"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Invoice is billed against a lease
type Invoice struct {
	UUID      string    `json:"uuid"`
	LeaseID   string    `json:"lease_id"`
	TenantID  string    `json:"tenant_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	DueDate   time.Time `json:"due_date"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
}

// MaintenanceRequest is raised by a tenant for a property
type MaintenanceRequest struct {
	UUID        string    `json:"uuid"`
	PropertyID  string    `json:"property_id"`
	TenantID    string    `json:"tenant_id"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"` // low, medium, high
	Status      string    `json:"status"`   // open, in_progress, resolved
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction records a completed sale or rent payment
type Transaction struct {
	UUID       string    `json:"uuid"`
	PropertyID string    `json:"property_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	AgentID    string    `json:"agent_id,omitempty"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Kind       Purpose   `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a rating left by a user on a property or agent
type Review struct {
	UUID       string    `json:"uuid"`
	PropertyID string    `json:"property_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	UserID     string    `json:"user_id"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// Document is an uploaded file (title deed, lease scan) attached to a property
type Document struct {
	UUID       string    `json:"uuid"`
	PropertyID string    `json:"property_id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// PropertyAgent links agents to properties
type PropertyAgent struct {
	UUID       string    `json:"uuid"`
	PropertyID string    `json:"property_id"`
	AgentID    string    `json:"agent_id"`
	Role       string    `json:"role"` // listing, buying, co_listing
	CreatedAt  time.Time `json:"created_at"`
}

// Collection names
const (
	CollectionUsers               = "users"
	CollectionProperties          = "properties"
	CollectionPropertyTypes       = "propertytype"
	CollectionAppointments        = "appointments"
	CollectionInquiries           = "inquiries"
	CollectionLeases              = "leases"
	CollectionInvoices            = "invoices"
	CollectionMaintenanceRequests = "maintenance_requests"
	CollectionTransactions        = "transactions"
	CollectionReviews             = "reviews"
	CollectionDocuments           = "documents"
	CollectionPropertyAgents      = "property_agents"
)

func (a Appointment) RecordID() string          { return a.UUID }
func (a Appointment) Collection() string        { return CollectionAppointments }
func (i Inquiry) RecordID() string              { return i.UUID }
func (i Inquiry) Collection() string            { return CollectionInquiries }
func (l Lease) RecordID() string                { return l.UUID }
func (l Lease) Collection() string              { return CollectionLeases }
func (i Invoice) RecordID() string              { return i.UUID }
func (i Invoice) Collection() string            { return CollectionInvoices }
func (m MaintenanceRequest) RecordID() string   { return m.UUID }
func (m MaintenanceRequest) Collection() string { return CollectionMaintenanceRequests }
func (t Transaction) RecordID() string          { return t.UUID }
func (t Transaction) Collection() string        { return CollectionTransactions }
func (r Review) RecordID() string               { return r.UUID }
func (r Review) Collection() string             { return CollectionReviews }
func (d Document) RecordID() string             { return d.UUID }
func (d Document) Collection() string           { return CollectionDocuments }
func (p PropertyAgent) RecordID() string        { return p.UUID }
func (p PropertyAgent) Collection() string      { return CollectionPropertyAgents }
