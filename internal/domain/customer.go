package domain

import (
	"strings"
	"time"
)

// Customer statuses.
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
	CustomerStatusProspect = "prospect"
)

// CustomerStatuses lists valid customer status values.
var CustomerStatuses = []string{CustomerStatusActive, CustomerStatusInactive, CustomerStatusProspect}

// Customer is a client of the studio. The numeric ID stays internal;
// PublicID is the identifier exposed in URLs and API payloads.
type Customer struct {
	ID          int64      `json:"-"`
	PublicID    string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	JobTitle    string     `json:"jobTitle,omitempty"`
	CompanyName string     `json:"companyName,omitempty"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Website     string     `json:"website,omitempty"`
	Street      string     `json:"street,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	PostalCode  string     `json:"postalCode,omitempty"`
	Country     string     `json:"country,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Projects    []Project  `json:"projects,omitempty"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FullName joins first and last name for display.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ValidCustomerStatus reports whether s is a recognized customer status.
func ValidCustomerStatus(s string) bool {
	for _, v := range CustomerStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CustomerStats aggregates customer counters for the admin dashboard.
type CustomerStats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"byStatus"`
	WithProjects int64            `json:"withProjects"`
	TopByProject []CustomerCount  `json:"topByProjects"`
}

// CustomerCount pairs a customer with its project count.
type CustomerCount struct {
	PublicID     string `json:"id"`
	Name         string `json:"name"`
	CompanyName  string `json:"companyName,omitempty"`
	ProjectCount int64  `json:"projectCount"`
}
