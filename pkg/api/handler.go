package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/sse"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
	"github.com/AvivElectis/electisSpace-sub010/pkg/syncqueue"
	"github.com/AvivElectis/electisSpace-sub010/pkg/tenancy"
)

// Handler serves the REST API
type Handler struct {
	store      store.Store
	queue      *syncqueue.Service
	reconciler *syncqueue.Reconciler
	events     *sse.Manager
	logger     *logging.Logger
	startTime  time.Time
}

// NewHandler creates the API handler
func NewHandler(s store.Store, queue *syncqueue.Service, reconciler *syncqueue.Reconciler, events *sse.Manager, logger *logging.Logger) *Handler {
	return &Handler{
		store:      s,
		queue:      queue,
		reconciler: reconciler,
		events:     events,
		logger:     logger.WithField("component", "api"),
		startTime:  time.Now(),
	}
}

// RegisterRoutes registers all API routes. Resource routes live under
// /api/v1; the SSE stream and the health/status probes stay at the root.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Company routes (multi-tenancy)
	v1.HandleFunc("/companies", h.CreateCompany).Methods("POST")
	v1.HandleFunc("/companies", h.ListCompanies).Methods("GET")
	v1.HandleFunc("/companies/{id}", h.GetCompany).Methods("GET")
	v1.HandleFunc("/companies/{id}", h.UpdateCompany).Methods("PUT")
	v1.HandleFunc("/companies/{id}", h.DeleteCompany).Methods("DELETE")

	// Store routes
	v1.HandleFunc("/stores", h.CreateStore).Methods("POST")
	v1.HandleFunc("/stores", h.ListStores).Methods("GET")
	v1.HandleFunc("/stores/{id}", h.GetStore).Methods("GET")
	v1.HandleFunc("/stores/{id}", h.UpdateStore).Methods("PUT")
	v1.HandleFunc("/stores/{id}", h.DeleteStore).Methods("DELETE")

	// Space routes
	v1.HandleFunc("/stores/{storeID}/spaces", h.CreateSpace).Methods("POST")
	v1.HandleFunc("/stores/{storeID}/spaces", h.ListSpaces).Methods("GET")
	v1.HandleFunc("/spaces/{id}", h.GetSpace).Methods("GET")
	v1.HandleFunc("/spaces/{id}", h.UpdateSpace).Methods("PUT")
	v1.HandleFunc("/spaces/{id}", h.DeleteSpace).Methods("DELETE")
	v1.HandleFunc("/spaces/{id}/status", h.UpdateSpaceStatus).Methods("POST")

	// Person routes
	v1.HandleFunc("/stores/{storeID}/people", h.CreatePerson).Methods("POST")
	v1.HandleFunc("/stores/{storeID}/people", h.ListPeople).Methods("GET")
	v1.HandleFunc("/people/{id}", h.GetPerson).Methods("GET")
	v1.HandleFunc("/people/{id}", h.UpdatePerson).Methods("PUT")
	v1.HandleFunc("/people/{id}", h.DeletePerson).Methods("DELETE")
	v1.HandleFunc("/people/{id}/assign", h.AssignPerson).Methods("POST")

	// Conference room routes
	v1.HandleFunc("/stores/{storeID}/rooms", h.CreateRoom).Methods("POST")
	v1.HandleFunc("/stores/{storeID}/rooms", h.ListRooms).Methods("GET")
	v1.HandleFunc("/rooms/{id}", h.GetRoom).Methods("GET")
	v1.HandleFunc("/rooms/{id}", h.UpdateRoom).Methods("PUT")
	v1.HandleFunc("/rooms/{id}", h.DeleteRoom).Methods("DELETE")
	v1.HandleFunc("/rooms/{id}/booking", h.UpdateRoomBooking).Methods("POST")

	// Sync queue routes (register specific routes before parameterized)
	v1.HandleFunc("/sync/counts", h.GetSyncCounts).Methods("GET")
	v1.HandleFunc("/sync/reconcile", h.TriggerReconcile).Methods("POST")
	v1.HandleFunc("/stores/{storeID}/sync", h.ListSyncItems).Methods("GET")
	v1.HandleFunc("/stores/{storeID}/sync/replay", h.ReplayDeadItems).Methods("POST")
	v1.HandleFunc("/sync/{id}", h.GetSyncItem).Methods("GET")
	v1.HandleFunc("/sync/{id}", h.DeleteSyncItem).Methods("DELETE")
	v1.HandleFunc("/sync/{id}/retry", h.RetrySyncItem).Methods("POST")

	// SSE stream
	r.Handle("/events", h.events).Methods("GET")

	// Other routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// notFoundStatus maps store sentinel errors to 404, everything else to 500
func notFoundStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrCompanyNotFound),
		errors.Is(err, store.ErrStoreNotFound),
		errors.Is(err, store.ErrSpaceNotFound),
		errors.Is(err, store.ErrPersonNotFound),
		errors.Is(err, store.ErrRoomNotFound),
		errors.Is(err, store.ErrSyncItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requireStore loads a store and checks it belongs to the request tenant
func (h *Handler) requireStore(w http.ResponseWriter, r *http.Request, storeID string) (*models.Store, bool) {
	st, err := h.store.GetStore(storeID)
	if err != nil {
		writeError(w, notFoundStatus(err), "Store not found: %v", err)
		return nil, false
	}

	companyID, err := tenancy.GetCompanyID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "No company ID provided")
		return nil, false
	}
	if st.CompanyID != companyID {
		// Hide other tenants' stores entirely
		writeError(w, http.StatusNotFound, "Store not found")
		return nil, false
	}
	return st, true
}

// enqueueSync records a sync intent and logs failures without failing
// the API request. The write already happened; the queue catches up.
func (h *Handler) enqueueSync(st *models.Store, entityType models.EntityType, entityID string, op models.SyncOp) {
	if _, err := h.queue.Enqueue(st, entityType, entityID, op); err != nil {
		h.logger.Error("failed to enqueue sync item", map[string]interface{}{
			"store": st.ID, "entity": entityID, "op": op, "error": err.Error(),
		})
	}
}

func (h *Handler) broadcast(storeID, eventType string, data interface{}) {
	if h.events != nil {
		h.events.Broadcast(storeID, sse.Event{Type: eventType, Data: data})
	}
}

// Health reports liveness and store connectivity
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy", "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// StatusResponse reports server and host state
type StatusResponse struct {
	Uptime     string                    `json:"uptime"`
	GoVersion  string                    `json:"go_version"`
	Goroutines int                       `json:"goroutines"`
	Queue      map[models.SyncStatus]int `json:"queue"`
	Host       map[string]interface{}    `json:"host"`
}

// Status reports server health plus host resource usage
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queue.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read queue counts: %v", err)
		return
	}

	hostInfo := make(map[string]interface{})
	if info, err := host.Info(); err == nil {
		hostInfo["hostname"] = info.Hostname
		hostInfo["os"] = info.OS
		hostInfo["platform"] = info.Platform
		hostInfo["uptime_seconds"] = info.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hostInfo["mem_total_bytes"] = vm.Total
		hostInfo["mem_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		hostInfo["cpu_percent"] = percents[0]
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Queue:      counts,
		Host:       hostInfo,
	})
}
