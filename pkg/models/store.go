package models

import (
	"errors"
	"time"
)

// Store represents a physical location operated by a company.
// A store optionally binds to a SoluM AIMS station; only bound stores
// participate in label synchronization.
type Store struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Timezone  string `json:"timezone,omitempty"`

	// AIMS binding
	AimsEnabled     bool   `json:"aims_enabled"`
	AimsStoreNumber string `json:"aims_store_number,omitempty"`
	AimsStationCode string `json:"aims_station_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the store configuration is valid
func (s *Store) Validate() error {
	if s.ID == "" {
		return errors.New("store ID is required")
	}
	if s.CompanyID == "" {
		return errors.New("store company ID is required")
	}
	if s.Name == "" {
		return errors.New("store name is required")
	}
	if s.AimsEnabled && s.AimsStoreNumber == "" {
		return errors.New("aims_store_number is required when AIMS is enabled")
	}
	return nil
}
