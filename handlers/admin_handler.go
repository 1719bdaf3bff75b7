package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"favordesk/services"
	"favordesk/store"
)

type AdminHandler struct {
	app       *pocketbase.PocketBase
	snapshots *services.SnapshotService
	sync      *services.TagSyncService
	counters  store.CounterStore
}

func NewAdminHandler(app *pocketbase.PocketBase, snapshots *services.SnapshotService, sync *services.TagSyncService, counters store.CounterStore) *AdminHandler {
	return &AdminHandler{
		app:       app,
		snapshots: snapshots,
		sync:      sync,
		counters:  counters,
	}
}

// QueueDashboard - full engine view of one creator's queue
func (h *AdminHandler) QueueDashboard(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Superuser only", nil)
	}

	creator := e.Request.URL.Query().Get("creator")
	if creator == "" {
		return apis.NewBadRequestError("Creator required", nil)
	}
	ctx := e.Request.Context()

	snapshot, err := h.snapshots.Snapshot(ctx, creator)
	if err != nil {
		return apis.NewBadRequestError("Failed to build snapshot", err)
	}

	positions, err := h.snapshots.Positions(ctx, creator)
	if err != nil {
		return apis.NewBadRequestError("Failed to compute positions", err)
	}

	response := map[string]any{
		"snapshot":  snapshot,
		"positions": positions,
	}

	if counter, err := h.counters.GetByCreator(ctx, creator); err == nil {
		response["counter"] = counter
	}

	return e.JSON(http.StatusOK, response)
}

// ForceSync - re-run tag synchronization for a creator
func (h *AdminHandler) ForceSync(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Superuser only", nil)
	}

	var req struct {
		Creator string `json:"creator"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Creator == "" {
		return apis.NewBadRequestError("Creator required", nil)
	}

	if err := h.sync.Synchronize(e.Request.Context(), req.Creator); err != nil {
		return apis.NewBadRequestError("Synchronization failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Synchronized", "creator": req.Creator})
}
