package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// CreateSpaceRequest represents a space creation request
type CreateSpaceRequest struct {
	Name      string             `json:"name"`
	Type      models.SpaceType   `json:"type"`
	Status    models.SpaceStatus `json:"status,omitempty"`
	Floor     string             `json:"floor,omitempty"`
	Zone      string             `json:"zone,omitempty"`
	LabelCode string             `json:"label_code,omitempty"`
	NFCUrl    string             `json:"nfc_url,omitempty"`
}

// UpdateSpaceRequest represents a space update request
type UpdateSpaceRequest struct {
	Name      *string             `json:"name,omitempty"`
	Type      *models.SpaceType   `json:"type,omitempty"`
	Status    *models.SpaceStatus `json:"status,omitempty"`
	Floor     *string             `json:"floor,omitempty"`
	Zone      *string             `json:"zone,omitempty"`
	LabelCode *string             `json:"label_code,omitempty"`
	NFCUrl    *string             `json:"nfc_url,omitempty"`
}

// CreateSpace creates a space and queues its label for sync
func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	var req CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Status == "" {
		req.Status = models.SpaceStatusFree
	}

	now := time.Now()
	space := &models.Space{
		ID:        uuid.New().String(),
		StoreID:   st.ID,
		Name:      req.Name,
		Type:      req.Type,
		Status:    req.Status,
		Floor:     req.Floor,
		Zone:      req.Zone,
		LabelCode: req.LabelCode,
		NFCUrl:    req.NFCUrl,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := space.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid space: %v", err)
		return
	}

	if err := h.store.CreateSpace(space); err != nil {
		h.logger.Error("failed to create space", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to create space: %v", err)
		return
	}

	h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpCreate)
	h.broadcast(st.ID, "space_created", space)
	writeJSON(w, http.StatusCreated, space)
}

// GetSpace retrieves a space by ID
func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.store.GetSpace(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Space not found: %v", err)
		return
	}
	if _, ok := h.requireStore(w, r, space.StoreID); !ok {
		return
	}
	writeJSON(w, http.StatusOK, space)
}

// ListSpaces lists spaces for a store
func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	spaces, err := h.store.ListSpaces(st.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list spaces: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

// UpdateSpace updates a space and queues its label for sync
func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.store.GetSpace(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Space not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, space.StoreID)
	if !ok {
		return
	}

	var req UpdateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Name != nil {
		space.Name = *req.Name
	}
	if req.Type != nil {
		space.Type = *req.Type
	}
	if req.Status != nil {
		space.Status = *req.Status
	}
	if req.Floor != nil {
		space.Floor = *req.Floor
	}
	if req.Zone != nil {
		space.Zone = *req.Zone
	}
	if req.LabelCode != nil {
		space.LabelCode = *req.LabelCode
	}
	if req.NFCUrl != nil {
		space.NFCUrl = *req.NFCUrl
	}
	space.UpdatedAt = time.Now()

	if err := space.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid space: %v", err)
		return
	}

	if err := h.store.UpdateSpace(space); err != nil {
		h.logger.Error("failed to update space", map[string]interface{}{"space": space.ID, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to update space: %v", err)
		return
	}

	h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "space_updated", space)
	writeJSON(w, http.StatusOK, space)
}

// UpdateSpaceStatus changes only the occupancy status of a space
func (h *Handler) UpdateSpaceStatus(w http.ResponseWriter, r *http.Request) {
	space, err := h.store.GetSpace(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Space not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, space.StoreID)
	if !ok {
		return
	}

	var req struct {
		Status models.SpaceStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	space.Status = req.Status
	space.UpdatedAt = time.Now()
	if err := space.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status: %v", err)
		return
	}

	if err := h.store.UpdateSpace(space); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update space: %v", err)
		return
	}

	h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "space_updated", space)
	writeJSON(w, http.StatusOK, space)
}

// DeleteSpace deletes a space and queues its label for removal
func (h *Handler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.store.GetSpace(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Space not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, space.StoreID)
	if !ok {
		return
	}

	if err := h.store.DeleteSpace(space.ID); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete space: %v", err)
		return
	}

	h.enqueueSync(st, models.EntitySpace, space.ID, models.SyncOpDelete)
	h.broadcast(st.ID, "space_deleted", map[string]string{"id": space.ID})
	w.WriteHeader(http.StatusNoContent)
}
