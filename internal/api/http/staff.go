package httpapi

import (
	"errors"
	"net/http"

	"quickbar/internal/domain"
	"quickbar/internal/service"

	"github.com/gorilla/mux"
)

func (h *Handler) staffSession(w http.ResponseWriter, r *http.Request) (*service.StaffQueue, bool) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return nil, false
	}
	queue, err := h.Staff.Get(r.Context(), venueID)
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to open staff queue")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return nil, false
	}
	return queue, true
}

func staffStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrVenueNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) staffQueue(w http.ResponseWriter, r *http.Request) {
	queue, ok := h.staffSession(w, r)
	if !ok {
		return
	}
	view := settle(r.Context(), queue.Changes, queue.View, func(v service.QueueView) bool { return !v.Loading }, h.SettleTimeout)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) staffEvents(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return
	}
	queue, done, release, err := h.Staff.Hold(r.Context(), venueID)
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to open staff queue")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}
	defer release()
	h.stream(w, r, done, queue.Changes, func() any { return queue.View() })
}

func (h *Handler) markReady(w http.ResponseWriter, r *http.Request) {
	queue, ok := h.staffSession(w, r)
	if !ok {
		return
	}
	if err := queue.MarkReady(r.Context(), mux.Vars(r)["orderId"]); err != nil {
		http.Error(w, err.Error(), staffStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeOrder(w http.ResponseWriter, r *http.Request) {
	queue, ok := h.staffSession(w, r)
	if !ok {
		return
	}
	if err := queue.Remove(r.Context(), mux.Vars(r)["orderId"]); err != nil {
		http.Error(w, err.Error(), staffStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleOrders(w http.ResponseWriter, r *http.Request) {
	queue, ok := h.staffSession(w, r)
	if !ok {
		return
	}
	open, err := queue.ToggleOrders(r.Context())
	if err != nil {
		http.Error(w, err.Error(), staffStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ordersOpen": open})
}
