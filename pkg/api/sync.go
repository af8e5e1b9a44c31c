package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/tenancy"
)

// ListSyncItems lists sync queue items for a store. The status query
// parameter filters by lifecycle state.
func (h *Handler) ListSyncItems(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	status := models.SyncStatus(r.URL.Query().Get("status"))
	items, err := h.queue.List(st.ID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sync items: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetSyncItem retrieves one sync item
func (h *Handler) GetSyncItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.queue.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Sync item not found: %v", err)
		return
	}
	if !h.ownsSyncItem(w, r, item) {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RetrySyncItem requeues a failed or dead item for an immediate attempt
func (h *Handler) RetrySyncItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.queue.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Sync item not found: %v", err)
		return
	}
	if !h.ownsSyncItem(w, r, item) {
		return
	}

	item, err = h.queue.Retry(item.ID)
	if err != nil {
		writeError(w, http.StatusConflict, "Cannot retry sync item: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteSyncItem removes a sync item from the queue
func (h *Handler) DeleteSyncItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.queue.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, notFoundStatus(err), "Sync item not found: %v", err)
		return
	}
	if !h.ownsSyncItem(w, r, item) {
		return
	}

	if err := h.queue.Delete(item.ID); err != nil {
		writeError(w, notFoundStatus(err), "Failed to delete sync item: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplayDeadItems requeues every dead item for a store
func (h *Handler) ReplayDeadItems(w http.ResponseWriter, r *http.Request) {
	st, ok := h.requireStore(w, r, mux.Vars(r)["storeID"])
	if !ok {
		return
	}

	replayed, err := h.queue.ReplayDead(st.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to replay dead items: %v", err)
		return
	}

	h.logger.Info("dead items replayed", map[string]interface{}{"store": st.ID, "count": replayed})
	writeJSON(w, http.StatusOK, map[string]int{"replayed": replayed})
}

// GetSyncCounts reports queue depth by status
func (h *Handler) GetSyncCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queue.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count sync items: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// TriggerReconcile runs a full pull-sync pass immediately
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "Reconciler not running")
		return
	}

	reports := h.reconciler.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h *Handler) ownsSyncItem(w http.ResponseWriter, r *http.Request, item *models.SyncItem) bool {
	companyID, err := tenancy.GetCompanyID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "No company ID provided")
		return false
	}
	if item.CompanyID != companyID {
		writeError(w, http.StatusNotFound, "Sync item not found")
		return false
	}
	return true
}
