package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// CreatePersonRequest represents a person creation request
type CreatePersonRequest struct {
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	SpaceID   string `json:"space_id,omitempty"`
	LabelCode string `json:"label_code,omitempty"`
}

// UpdatePersonRequest represents a person update request
type UpdatePersonRequest struct {
	Name      *string `json:"name,omitempty"`
	Title     *string `json:"title,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	SpaceID   *string `json:"space_id,omitempty"`
	LabelCode *string `json:"label_code,omitempty"`
}

// CreatePerson creates a person and queues their label for sync
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.SpaceID != "" {
		if _, err := h.store.GetSpace(req.SpaceID); err != nil {
			writeError(w, http.StatusBadRequest, "Assigned space not found: %v", err)
			return
		}
	}

	now := time.Now()
	person := &models.Person{
		ID:        uuid.New().String(),
		StoreID:   st.ID,
		Name:      req.Name,
		Title:     req.Title,
		Email:     req.Email,
		Phone:     req.Phone,
		SpaceID:   req.SpaceID,
		LabelCode: req.LabelCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := person.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid person: %v", err)
		return
	}

	if err := h.store.CreatePerson(person); err != nil {
		h.logger.Error("failed to create person", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to create person: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityPerson, person.ID, models.SyncOpCreate)
	h.broadcast(st.ID, "person_created", person)
	writeJSON(w, http.StatusCreated, person)
}

// GetPerson retrieves a person by ID
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.store.GetPerson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Person not found: %v", err)
		return
	}
	if _, ok := h.requireStore(w, r, person.StoreID); !ok {
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// ListPeople lists people for a store
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	people, err := h.store.ListPeople(st.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list people: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// UpdatePerson updates a person and queues their label for sync
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.store.GetPerson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Person not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, person.StoreID)
	if !ok {
		return
	}

	var req UpdatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Name != nil {
		person.Name = *req.Name
	}
	if req.Title != nil {
		person.Title = *req.Title
	}
	if req.Email != nil {
		person.Email = *req.Email
	}
	if req.Phone != nil {
		person.Phone = *req.Phone
	}
	if req.SpaceID != nil {
		person.SpaceID = *req.SpaceID
	}
	if req.LabelCode != nil {
		person.LabelCode = *req.LabelCode
	}
	person.UpdatedAt = time.Now()

	if err := person.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid person: %v", err)
		return
	}

	if err := h.store.UpdatePerson(person); err != nil {
		h.logger.Error("failed to update person", map[string]interface{}{"person": person.ID, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to update person: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityPerson, person.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "person_updated", person)
	writeJSON(w, http.StatusOK, person)
}

// AssignPerson moves a person to a desk (or unassigns with an empty
// space_id). Both the person label and the desk label refresh.
func (h *Handler) AssignPerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.store.GetPerson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Person not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, person.StoreID)
	if !ok {
		return
	}

	var req struct {
		SpaceID string `json:"space_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	previousSpace := person.SpaceID

	if req.SpaceID != "" {
		space, err := h.store.GetSpace(req.SpaceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Space not found: %v", err)
			return
		}
		if space.StoreID != st.ID {
			writeError(w, http.StatusBadRequest, "Space belongs to a different store")
			return
		}
		space.Status = models.SpaceStatusOccupied
		space.UpdatedAt = time.Now()
		if err := h.store.UpdateSpace(space); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update space: %v", err)
			return
		}
		h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpUpdate)
		h.broadcast(st.ID, "space_updated", space)
	}

	person.SpaceID = req.SpaceID
	person.UpdatedAt = time.Now()
	if err := h.store.UpdatePerson(person); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update person: %v", err)
		return
	}

	// Free the previously assigned desk
	if previousSpace != "" && previousSpace != req.SpaceID {
		if space, err := h.store.GetSpace(previousSpace); err == nil {
			space.Status = models.SpaceStatusFree
			space.UpdatedAt = time.Now()
			if err := h.store.UpdateSpace(space); err == nil {
				h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpUpdate)
				h.broadcast(st.ID, "space_updated", space)
			}
		}
	}

	h.enqueueSync(st, models.EntityPerson, person.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "person_updated", person)
	writeJSON(w, http.StatusOK, person)
}

// DeletePerson deletes a person and queues their label for removal
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.store.GetPerson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Person not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, person.StoreID)
	if !ok {
		return
	}

	if err := h.store.DeletePerson(person.ID); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete person: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityPerson, person.ID, models.SyncOpDelete)
	h.broadcast(st.ID, "person_deleted", map[string]string{"id": person.ID})
	w.WriteHeader(http.StatusNoContent)
}
