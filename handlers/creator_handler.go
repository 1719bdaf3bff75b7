package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"favordesk/services"
)

// CreatorHandler exposes the creator-side workflow actions. Every
// action is scoped to the authenticated creator's own tickets.
type CreatorHandler struct {
	app    *pocketbase.PocketBase
	favors *services.FavorService
}

func NewCreatorHandler(app *pocketbase.PocketBase, favors *services.FavorService) *CreatorHandler {
	return &CreatorHandler{
		app:    app,
		favors: favors,
	}
}

// owns loads the referenced ticket and checks the caller is its
// creator. Missing tickets surface as not-found before the ownership
// check so the handler never leaks other creators' references.
func (h *CreatorHandler) owns(e *core.RequestEvent, reference string) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.favors.GetByReference(e.Request.Context(), reference)
	if err != nil {
		return apis.NewNotFoundError("Favor not found", err)
	}
	if ticket.Creator != e.Auth.Id {
		return apis.NewForbiddenError("Not your favor queue", nil)
	}
	return nil
}

// Approve - accept an open favor into the active queue
func (h *CreatorHandler) Approve(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")
	if err := h.owns(e, reference); err != nil {
		return err
	}

	if err := h.favors.Approve(e.Request.Context(), reference); err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return apis.NewBadRequestError("Favor cannot be approved in its current state", err)
		}
		return apis.NewBadRequestError("Failed to approve favor", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Favor approved", "reference": reference})
}

// Reject - drop a favor from the queue
func (h *CreatorHandler) Reject(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")
	if err := h.owns(e, reference); err != nil {
		return err
	}

	ok, err := h.favors.Reject(e.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return apis.NewBadRequestError("Favor cannot be rejected in its current state", err)
		}
		return apis.NewBadRequestError("Failed to reject favor", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ok": ok, "reference": reference})
}

// Finish - close out an approved favor for good
func (h *CreatorHandler) Finish(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")
	if err := h.owns(e, reference); err != nil {
		return err
	}

	ok, err := h.favors.Finish(e.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return apis.NewBadRequestError("Favor cannot be finished in its current state", err)
		}
		return apis.NewBadRequestError("Failed to finish favor", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ok": ok, "reference": reference})
}

// ToggleTag - flip a favor between current and awaiting-feedback
func (h *CreatorHandler) ToggleTag(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")
	if err := h.owns(e, reference); err != nil {
		return err
	}

	if err := h.favors.ToggleTag(e.Request.Context(), reference); err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return apis.NewBadRequestError("Favor is not in a toggleable state", err)
		}
		return apis.NewBadRequestError("Failed to toggle favor tag", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Tag toggled", "reference": reference})
}
