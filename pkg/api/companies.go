package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// CreateCompanyRequest represents a company creation request
type CreateCompanyRequest struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name,omitempty"`
	AimsEnabled     bool   `json:"aims_enabled,omitempty"`
	AimsCompanyCode string `json:"aims_company_code,omitempty"`
	AimsUsername    string `json:"aims_username,omitempty"`
	AimsPassword    string `json:"aims_password,omitempty"`
}

// UpdateCompanyRequest represents a company update request
type UpdateCompanyRequest struct {
	DisplayName     *string               `json:"display_name,omitempty"`
	Status          *models.CompanyStatus `json:"status,omitempty"`
	AimsEnabled     *bool                 `json:"aims_enabled,omitempty"`
	AimsCompanyCode *string               `json:"aims_company_code,omitempty"`
	AimsUsername    *string               `json:"aims_username,omitempty"`
	AimsPassword    *string               `json:"aims_password,omitempty"`
}

// CompanyResponse represents a company in API responses. AIMS
// credentials never leave the server.
type CompanyResponse struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	DisplayName     string               `json:"display_name"`
	Status          models.CompanyStatus `json:"status"`
	AimsEnabled     bool                 `json:"aims_enabled"`
	AimsCompanyCode string               `json:"aims_company_code,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toCompanyResponse(c *models.Company) CompanyResponse {
	return CompanyResponse{
		ID:              c.ID,
		Name:            c.Name,
		DisplayName:     c.DisplayName,
		Status:          c.Status,
		AimsEnabled:     c.AimsEnabled,
		AimsCompanyCode: c.AimsCompanyCode,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// CreateCompany creates a new company
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	company := models.NewCompany(uuid.New().String(), req.Name)
	if req.DisplayName != "" {
		company.DisplayName = req.DisplayName
	}
	company.AimsEnabled = req.AimsEnabled
	company.AimsCompanyCode = req.AimsCompanyCode
	company.AimsUsername = req.AimsUsername
	company.AimsPassword = req.AimsPassword

	if err := company.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company: %v", err)
		return
	}

	if err := h.store.CreateCompany(company); err != nil {
		h.logger.Error("failed to create company", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to create company: %v", err)
		return
	}

	h.logger.Info("company created", map[string]interface{}{"company": company.ID, "name": company.Name})
	writeJSON(w, http.StatusCreated, toCompanyResponse(company))
}

// GetCompany retrieves a company by ID
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	company, err := h.store.GetCompany(id)
	if err != nil {
		writeError(w, notFoundStatus(err), "Company not found: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

// ListCompanies lists all companies
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.ListCompanies()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list companies: %v", err)
		return
	}

	response := make([]CompanyResponse, len(companies))
	for i, c := range companies {
		response[i] = toCompanyResponse(c)
	}
	writeJSON(w, http.StatusOK, response)
}

// UpdateCompany updates a company
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	company, err := h.store.GetCompany(id)
	if err != nil {
		writeError(w, notFoundStatus(err), "Company not found: %v", err)
		return
	}

	if req.DisplayName != nil {
		company.DisplayName = *req.DisplayName
	}
	if req.Status != nil {
		company.Status = *req.Status
	}
	if req.AimsEnabled != nil {
		company.AimsEnabled = *req.AimsEnabled
	}
	if req.AimsCompanyCode != nil {
		company.AimsCompanyCode = *req.AimsCompanyCode
	}
	if req.AimsUsername != nil {
		company.AimsUsername = *req.AimsUsername
	}
	if req.AimsPassword != nil {
		company.AimsPassword = *req.AimsPassword
	}
	company.UpdatedAt = time.Now()

	if err := company.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company: %v", err)
		return
	}

	if err := h.store.UpdateCompany(company); err != nil {
		h.logger.Error("failed to update company", map[string]interface{}{"company": id, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to update company: %v", err)
		return
	}

	h.logger.Info("company updated", map[string]interface{}{"company": company.ID})
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

// DeleteCompany deletes a company
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteCompany(id); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete company: %v", err)
		return
	}

	h.logger.Info("company deleted", map[string]interface{}{"company": id})
	w.WriteHeader(http.StatusNoContent)
}
