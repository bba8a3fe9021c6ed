package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAgent     Role = "agent"
	RoleBuyer     Role = "buyer"
	RoleSeller    Role = "seller"
	RoleLandlord  Role = "landlord"
	RoleTenant    Role = "tenant"
	RoleInvestor  Role = "investor"
	RoleGuest     Role = "guest"
	RoleModerator Role = "moderator"
	RoleAnalyst   Role = "analyst"
)

// AllRoles lists every role tag in display order.
var AllRoles = []Role{
	RoleAdmin, RoleAgent, RoleBuyer, RoleSeller, RoleLandlord,
	RoleTenant, RoleInvestor, RoleGuest, RoleModerator, RoleAnalyst,
}

// SelectableRoles are the roles a user may pick for themselves at registration.
func SelectableRoles() []Role {
	roles := make([]Role, 0, len(AllRoles)-1)
	for _, r := range AllRoles {
		if r != RoleAdmin {
			roles = append(roles, r)
		}
	}
	return roles
}

// ParseRole maps a tag (any case) to a Role.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageSpanish Language = "es"
	LanguageGerman  Language = "de"
	LanguageArabic  Language = "ar"
	LanguageChinese Language = "zh"
	LanguageSwahili Language = "sw"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Preferences struct {
	Notifications          bool        `json:"notifications"`
	PreferredPropertyTypes []string    `json:"preferred_property_types"`
	Budget                 BudgetRange `json:"budget"`
	PreferredLocations     []string    `json:"preferred_locations"`
}

// User is stored in the "users" collection keyed by the identity provider's user id.
type User struct {
	UUID              string      `json:"uuid"`
	FirstName         string      `json:"first_name"`
	LastName          string      `json:"last_name"`
	Phone             string      `json:"phone"`
	Email             string      `json:"email"`
	Roles             []Role      `json:"roles"`
	EmailVerified     bool        `json:"email_verified"`
	PhoneVerified     bool        `json:"phone_verified"`
	Address           Address     `json:"address"`
	Preferences       Preferences `json:"preferences"`
	Favorites         []string    `json:"favorites"`
	Language          Language    `json:"language"`
	ProfilePictureURL string      `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole is the role persisted with the local session.
// Admin wins over everything else; otherwise the first role is used.
func (u User) PrimaryRole() Role {
	if u.HasRole(RoleAdmin) {
		return RoleAdmin
	}
	if len(u.Roles) == 0 {
		return RoleGuest
	}
	return u.Roles[0]
}

// IsFavorite reports whether propertyID is in the user's favorites.
func (u User) IsFavorite(propertyID string) bool {
	for _, id := range u.Favorites {
		if id == propertyID {
			return true
		}
	}
	return false
}

// LoginResult is what the identity provider hands back after a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
