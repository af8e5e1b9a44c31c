package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// CreateRoomRequest represents a conference room creation request
type CreateRoomRequest struct {
	Name      string            `json:"name"`
	Capacity  int               `json:"capacity"`
	Status    models.RoomStatus `json:"status,omitempty"`
	LabelCode string            `json:"label_code,omitempty"`
}

// UpdateRoomRequest represents a conference room update request
type UpdateRoomRequest struct {
	Name      *string            `json:"name,omitempty"`
	Capacity  *int               `json:"capacity,omitempty"`
	Status    *models.RoomStatus `json:"status,omitempty"`
	LabelCode *string            `json:"label_code,omitempty"`
}

// CreateRoom creates a conference room and queues its label for sync
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Status == "" {
		req.Status = models.RoomStatusAvailable
	}

	now := time.Now()
	room := &models.ConferenceRoom{
		ID:        uuid.New().String(),
		StoreID:   st.ID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		Status:    req.Status,
		LabelCode: req.LabelCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := room.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room: %v", err)
		return
	}

	if err := h.store.CreateRoom(room); err != nil {
		h.logger.Error("failed to create room", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to create room: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityRoom, room.ID, models.SyncOpCreate)
	h.broadcast(st.ID, "room_created", room)
	writeJSON(w, http.StatusCreated, room)
}

// GetRoom retrieves a conference room by ID
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Room not found: %v", err)
		return
	}
	if _, ok := h.requireStore(w, r, room.StoreID); !ok {
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// ListRooms lists conference rooms for a store
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	rooms, err := h.store.ListRooms(st.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// UpdateRoom updates a conference room and queues its label for sync
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Room not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, room.StoreID)
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Status != nil {
		room.Status = *req.Status
	}
	if req.LabelCode != nil {
		room.LabelCode = *req.LabelCode
	}
	room.UpdatedAt = time.Now()

	if err := room.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room: %v", err)
		return
	}

	if err := h.store.UpdateRoom(room); err != nil {
		h.logger.Error("failed to update room", map[string]interface{}{"room": room.ID, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to update room: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityRoom, room.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "room_updated", room)
	writeJSON(w, http.StatusOK, room)
}

// UpdateRoomBooking updates the meeting display of a conference room.
// Calendar integrations call this when a meeting starts or ends.
func (h *Handler) UpdateRoomBooking(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Room not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, room.StoreID)
	if !ok {
		return
	}

	var req struct {
		Status         models.RoomStatus `json:"status"`
		CurrentMeeting string            `json:"current_meeting"`
		NextMeeting    string            `json:"next_meeting"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	room.Status = req.Status
	room.CurrentMeeting = req.CurrentMeeting
	room.NextMeeting = req.NextMeeting
	room.UpdatedAt = time.Now()

	if err := room.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking: %v", err)
		return
	}

	if err := h.store.UpdateRoom(room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update room: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityRoom, room.ID, models.SyncOpUpdate)
	h.broadcast(st.ID, "room_updated", room)
	writeJSON(w, http.StatusOK, room)
}

// DeleteRoom deletes a conference room and queues its label for removal
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Room not found: %v", err)
		return
	}
	st, ok := h.requireStore(w, r, room.StoreID)
	if !ok {
		return
	}

	if err := h.store.DeleteRoom(room.ID); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete room: %v", err)
		return
	}

	h.enqueueSync(st, models.EntityRoom, room.ID, models.SyncOpDelete)
	h.broadcast(st.ID, "room_deleted", map[string]string{"id": room.ID})
	w.WriteHeader(http.StatusNoContent)
}
