package models

import (
	"errors"
	"fmt"
	"time"
)

// EntityType identifies the kind of facility entity a sync item refers to
type EntityType string

const (
	EntitySpace  EntityType = "space"
	EntityPerson EntityType = "person"
	EntityRoom   EntityType = "room"
)

// ValidEntityType reports whether t is a known entity type
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntitySpace, EntityPerson, EntityRoom:
		return true
	default:
		return false
	}
}

// SpaceType classifies a space within a store
type SpaceType string

const (
	SpaceTypeDesk  SpaceType = "desk"
	SpaceTypeRoom  SpaceType = "room"
	SpaceTypeChair SpaceType = "chair"
)

// SpaceStatus represents the occupancy state of a space
type SpaceStatus string

const (
	SpaceStatusFree        SpaceStatus = "free"
	SpaceStatusOccupied    SpaceStatus = "occupied"
	SpaceStatusReserved    SpaceStatus = "reserved"
	SpaceStatusMaintenance SpaceStatus = "maintenance"
)

// Space represents a desk, room or chair inside a store
type Space struct {
	ID        string      `json:"id"`
	StoreID   string      `json:"store_id"`
	Name      string      `json:"name"`
	Type      SpaceType   `json:"type"`
	Status    SpaceStatus `json:"status"`
	Floor     string      `json:"floor,omitempty"`
	Zone      string      `json:"zone,omitempty"`
	LabelCode string      `json:"label_code,omitempty"` // bound ESL label, empty = unbound
	NFCUrl    string      `json:"nfc_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks if the space is well formed
func (s *Space) Validate() error {
	if s.ID == "" {
		return errors.New("space ID is required")
	}
	if s.StoreID == "" {
		return errors.New("space store ID is required")
	}
	if s.Name == "" {
		return errors.New("space name is required")
	}
	switch s.Type {
	case SpaceTypeDesk, SpaceTypeRoom, SpaceTypeChair:
	default:
		return fmt.Errorf("invalid space type: %s", s.Type)
	}
	switch s.Status {
	case SpaceStatusFree, SpaceStatusOccupied, SpaceStatusReserved, SpaceStatusMaintenance:
	default:
		return fmt.Errorf("invalid space status: %s", s.Status)
	}
	return nil
}

// Person represents a desk assignment: a person displayed on a desk label
type Person struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	SpaceID   string    `json:"space_id,omitempty"` // assigned desk, empty = unassigned
	LabelCode string    `json:"label_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the person is well formed
func (p *Person) Validate() error {
	if p.ID == "" {
		return errors.New("person ID is required")
	}
	if p.StoreID == "" {
		return errors.New("person store ID is required")
	}
	if p.Name == "" {
		return errors.New("person name is required")
	}
	return nil
}

// RoomStatus represents the booking state of a conference room
type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusOccupied  RoomStatus = "occupied"
	RoomStatusReserved  RoomStatus = "reserved"
)

// ConferenceRoom represents a bookable meeting room
type ConferenceRoom struct {
	ID             string     `json:"id"`
	StoreID        string     `json:"store_id"`
	Name           string     `json:"name"`
	Capacity       int        `json:"capacity"`
	Status         RoomStatus `json:"status"`
	CurrentMeeting string     `json:"current_meeting,omitempty"`
	NextMeeting    string     `json:"next_meeting,omitempty"`
	LabelCode      string     `json:"label_code,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Validate checks if the conference room is well formed
func (r *ConferenceRoom) Validate() error {
	if r.ID == "" {
		return errors.New("room ID is required")
	}
	if r.StoreID == "" {
		return errors.New("room store ID is required")
	}
	if r.Name == "" {
		return errors.New("room name is required")
	}
	if r.Capacity < 0 {
		return errors.New("room capacity cannot be negative")
	}
	switch r.Status {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusReserved:
	default:
		return fmt.Errorf("invalid room status: %s", r.Status)
	}
	return nil
}
