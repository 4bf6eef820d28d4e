package httpapi

import (
	"context"
	"net/http"

	"quickbar/internal/auth"
	"quickbar/internal/service"
)

type gateResponse struct {
	State service.GateState `json:"state"`
	Retry bool              `json:"retry,omitempty"`
	Error string            `json:"error,omitempty"`
}

// authorize answers the request itself unless decide grants access. Nothing is
// denied while the role of the caller is still being resolved.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, decide func(service.Permissions) service.Access) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return auth.Session{}, false
	}

	gate := h.Gates.ForSession(session.ID, session.Identity.UID)
	ctx, cancel := context.WithTimeout(r.Context(), h.GateWait)
	perms := gate.Wait(ctx)
	cancel()

	switch decide(perms) {
	case service.AccessGranted:
		return session, true
	case service.AccessDenied:
		http.Error(w, "Access denied", http.StatusForbidden)
	case service.AccessUnavailable:
		writeJSON(w, http.StatusServiceUnavailable, gateResponse{State: service.GateErrored, Retry: true, Error: "role lookup failed"})
	default:
		writeJSON(w, http.StatusAccepted, gateResponse{State: service.GateLoading})
	}
	return auth.Session{}, false
}

func (h *Handler) requireVenue(w http.ResponseWriter, r *http.Request, venueID string) bool {
	_, ok := h.authorize(w, r, func(p service.Permissions) service.Access { return p.Access(venueID) })
	return ok
}

func (h *Handler) requireSuperAdmin(w http.ResponseWriter, r *http.Request) bool {
	_, ok := h.authorize(w, r, service.Permissions.SuperAdminAccess)
	return ok
}
