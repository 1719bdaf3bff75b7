package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"favordesk/models"
	"favordesk/services"
)

type FavorHandler struct {
	app       *pocketbase.PocketBase
	favors    *services.FavorService
	snapshots *services.SnapshotService
}

func NewFavorHandler(app *pocketbase.PocketBase, favors *services.FavorService, snapshots *services.SnapshotService) *FavorHandler {
	return &FavorHandler{
		app:       app,
		favors:    favors,
		snapshots: snapshots,
	}
}

// Submit - create a favor request in one of the creator's lanes
func (h *FavorHandler) Submit(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Creator   string `json:"creator"`
		Lane      string `json:"lane"`
		Title     string `json:"title"`
		Details   string `json:"details"`
		TipAmount string `json:"tip_amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	tip := decimal.Zero
	if req.TipAmount != "" {
		var err error
		tip, err = decimal.NewFromString(req.TipAmount)
		if err != nil {
			return apis.NewBadRequestError("Invalid tip amount", err)
		}
	}

	ticket, session, err := h.favors.Submit(e.Request.Context(), services.SubmitRequest{
		Creator:   req.Creator,
		Requester: e.Auth.Id,
		Lane:      models.Lane(req.Lane),
		Title:     req.Title,
		Details:   req.Details,
		TipAmount: tip,
	})
	if err != nil {
		if errors.Is(err, services.ErrTipTooLow) {
			return apis.NewBadRequestError("Tip is below the priority lane minimum", err)
		}
		return apis.NewBadRequestError("Failed to submit favor", err)
	}

	response := map[string]any{"favor": ticket}
	if session != nil {
		response["payment"] = session
	}
	return e.JSON(http.StatusOK, response)
}

// Get - look up a favor and its place in line
func (h *FavorHandler) Get(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")

	ticket, err := h.favors.GetByReference(e.Request.Context(), reference)
	if err != nil {
		return apis.NewNotFoundError("Favor not found", err)
	}

	response := map[string]any{"favor": ticket}

	positions, err := h.snapshots.Positions(e.Request.Context(), ticket.Creator)
	if err == nil {
		for _, pos := range positions {
			if pos.Reference == reference {
				response["position"] = pos
				break
			}
		}
	}

	return e.JSON(http.StatusOK, response)
}

// Queue - display metrics for a creator's lanes
func (h *FavorHandler) Queue(e *core.RequestEvent) error {
	creator := e.Request.PathValue("creator")
	if creator == "" {
		return apis.NewBadRequestError("Creator required", nil)
	}

	snapshot, err := h.snapshots.Snapshot(e.Request.Context(), creator)
	if err != nil {
		return apis.NewBadRequestError("Failed to build queue snapshot", err)
	}

	return e.JSON(http.StatusOK, snapshot)
}

// Positions - the full computed serving order for a creator
func (h *FavorHandler) Positions(e *core.RequestEvent) error {
	creator := e.Request.PathValue("creator")
	if creator == "" {
		return apis.NewBadRequestError("Creator required", nil)
	}

	positions, err := h.snapshots.Positions(e.Request.Context(), creator)
	if err != nil {
		return apis.NewBadRequestError("Failed to compute positions", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"positions": positions})
}
