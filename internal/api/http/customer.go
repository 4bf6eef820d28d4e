package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quickbar/internal/domain"
	"quickbar/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DeviceCookie identifies a browser across screens. It scopes session storage.
const DeviceCookie = "quickbar_device"

const deviceCookieAge = 30 * 24 * time.Hour

func (h *Handler) deviceID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(DeviceCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(deviceCookieAge.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) customerSession(w http.ResponseWriter, r *http.Request) (*service.CustomerSession, bool) {
	venueID := mux.Vars(r)["venueId"]
	key := service.CustomerKey(h.deviceID(w, r), venueID)

	session, err := h.Customers.Get(r.Context(), key)
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to open customer session")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return nil, false
	}
	return session, true
}

func customerSettled(view service.CustomerView) bool {
	return view.Screen != service.ScreenLoading && view.Screen != service.ScreenOrderWaiting
}

func (h *Handler) customerView(r *http.Request, session *service.CustomerSession) service.CustomerView {
	return settle(r.Context(), session.Changes, session.View, customerSettled, h.SettleTimeout)
}

func writeCustomerView(w http.ResponseWriter, view service.CustomerView) {
	status := http.StatusOK
	if view.Screen == service.ScreenNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, view)
}

func customerStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrVenueNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrUnknownItem),
		errors.Is(err, service.ErrTipPercent),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrNegativeTip),
		errors.Is(err, domain.ErrQuantityOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrdersClosed),
		errors.Is(err, service.ErrActiveOrder),
		errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrWrongScreen),
		errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) customerError(w http.ResponseWriter, r *http.Request, err error) {
	status := customerStatus(err)
	if status == http.StatusBadGateway {
		h.Log.WithError(err).WithField("venue", mux.Vars(r)["venueId"]).Error("customer action failed")
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) customerScreen(w http.ResponseWriter, r *http.Request) {
	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	writeCustomerView(w, h.customerView(r, session))
}

func (h *Handler) customerEvents(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	session, done, release, err := h.Customers.Hold(r.Context(), service.CustomerKey(h.deviceID(w, r), venueID))
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to open customer session")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}
	defer release()
	h.stream(w, r, done, session.Changes, func() any { return session.View() })
}

// rawInput accepts a form value sent either as a JSON string or a JSON number.
func rawInput(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	qty, err := session.SetQuantity(mux.Vars(r)["itemId"], rawInput(payload.Quantity))
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quantity": qty,
		"view":     session.View(),
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	if err := session.Checkout(); err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) setTip(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Percent *int            `json:"percent"`
		Custom  json.RawMessage `json:"custom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Percent == nil && payload.Custom == nil {
		http.Error(w, "Missing percent or custom", http.StatusBadRequest)
		return
	}

	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	var err error
	if payload.Percent != nil {
		err = session.SelectTipPercent(*payload.Percent)
	} else {
		err = session.SetCustomTip(rawInput(payload.Custom))
	}
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) cancelTip(w http.ResponseWriter, r *http.Request) {
	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	if err := session.CancelTip(); err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.customerSession(w, r)
	if !ok {
		return
	}
	order, err := session.Confirm(r.Context())
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	h.Customers.Close(service.CustomerKey(h.deviceID(w, r), venueID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startPage(w http.ResponseWriter, r *http.Request) {
	info := h.Venues.StartInfo(r.Context(), mux.Vars(r)["venueId"])
	status := http.StatusOK
	if !info.Found {
		status = http.StatusNotFound
	}
	writeJSON(w, status, info)
}
