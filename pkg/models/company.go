package models

import (
	"errors"
	"fmt"
	"time"
)

// CompanyStatus represents the operational status of a company
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
	CompanyStatusDeleted   CompanyStatus = "deleted"
)

// Company represents a tenant: an organization that operates stores
type Company struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Status      CompanyStatus `json:"status"`

	// AIMS binding. Credentials are company-wide; each store adds its
	// own station code on top of these.
	AimsEnabled     bool   `json:"aims_enabled"`
	AimsCompanyCode string `json:"aims_company_code,omitempty"`
	AimsUsername    string `json:"aims_username,omitempty"`
	AimsPassword    string `json:"aims_password,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the company configuration is valid
func (c *Company) Validate() error {
	if c.ID == "" {
		return errors.New("company ID is required")
	}
	if c.Name == "" {
		return errors.New("company name is required")
	}
	if len(c.Name) < 2 || len(c.Name) > 64 {
		return errors.New("company name must be between 2 and 64 characters")
	}
	if !isValidCompanyStatus(c.Status) {
		return fmt.Errorf("invalid company status: %s", c.Status)
	}
	if c.AimsEnabled && c.AimsCompanyCode == "" {
		return errors.New("aims_company_code is required when AIMS is enabled")
	}
	return nil
}

// IsActive returns true if the company can use the system
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

func isValidCompanyStatus(status CompanyStatus) bool {
	switch status {
	case CompanyStatusActive, CompanyStatusSuspended, CompanyStatusDeleted:
		return true
	default:
		return false
	}
}

// NewCompany creates a new active company with default values
func NewCompany(id, name string) *Company {
	return &Company{
		ID:          id,
		Name:        name,
		DisplayName: name,
		Status:      CompanyStatusActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
