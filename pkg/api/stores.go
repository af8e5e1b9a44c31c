package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/tenancy"
)

// CreateStoreRequest represents a store creation request
type CreateStoreRequest struct {
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	AimsEnabled     bool   `json:"aims_enabled,omitempty"`
	AimsStoreNumber string `json:"aims_store_number,omitempty"`
	AimsStationCode string `json:"aims_station_code,omitempty"`
}

// UpdateStoreRequest represents a store update request
type UpdateStoreRequest struct {
	Name            *string `json:"name,omitempty"`
	Address         *string `json:"address,omitempty"`
	Timezone        *string `json:"timezone,omitempty"`
	AimsEnabled     *bool   `json:"aims_enabled,omitempty"`
	AimsStoreNumber *string `json:"aims_store_number,omitempty"`
	AimsStationCode *string `json:"aims_station_code,omitempty"`
}

// CreateStore creates a store under the request tenant
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenancy.GetCompanyID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "No company ID provided")
		return
	}

	if _, err := h.store.GetCompany(companyID); err != nil {
		writeError(w, notFoundStatus(err), "Company not found: %v", err)
		return
	}

	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	now := time.Now()
	st := &models.Store{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		Name:            req.Name,
		Address:         req.Address,
		Timezone:        req.Timezone,
		AimsEnabled:     req.AimsEnabled,
		AimsStoreNumber: req.AimsStoreNumber,
		AimsStationCode: req.AimsStationCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := st.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid store: %v", err)
		return
	}

	if err := h.store.CreateStore(st); err != nil {
		h.logger.Error("failed to create store", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to create store: %v", err)
		return
	}

	h.logger.Info("store created", map[string]interface{}{"store": st.ID, "company": companyID})
	writeJSON(w, http.StatusCreated, st)
}

// GetStore retrieves a store by ID
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListStores lists the request tenant's stores
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenancy.GetCompanyID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "No company ID provided")
		return
	}

	stores, err := h.store.ListStores(companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stores: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

// UpdateStore updates a store
func (h *Handler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Address != nil {
		st.Address = *req.Address
	}
	if req.Timezone != nil {
		st.Timezone = *req.Timezone
	}
	if req.AimsEnabled != nil {
		st.AimsEnabled = *req.AimsEnabled
	}
	if req.AimsStoreNumber != nil {
		st.AimsStoreNumber = *req.AimsStoreNumber
	}
	if req.AimsStationCode != nil {
		st.AimsStationCode = *req.AimsStationCode
	}
	st.UpdatedAt = time.Now()

	if err := st.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid store: %v", err)
		return
	}

	if err := h.store.UpdateStore(st); err != nil {
		h.logger.Error("failed to update store", map[string]interface{}{"store": st.ID, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to update store: %v", err)
		return
	}

	h.logger.Info("store updated", map[string]interface{}{"store": st.ID})
	writeJSON(w, http.StatusOK, st)
}

// DeleteStore deletes a store
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.store.DeleteStore(st.ID); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete store: %v", err)
		return
	}

	h.logger.Info("store deleted", map[string]interface{}{"store": st.ID})
	w.WriteHeader(http.StatusNoContent)
}
