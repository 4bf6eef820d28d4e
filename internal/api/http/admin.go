package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quickbar/internal/auth"
	"quickbar/internal/domain"
	"quickbar/internal/service"

	"github.com/gorilla/mux"
)

const defaultReturnURL = "/admin"

// safeReturnURL keeps redirects on this site.
func safeReturnURL(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return defaultReturnURL
	}
	return raw
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		ReturnURL string `json:"returnUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	session, err := h.Auth.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Email ou mot de passe incorrect", http.StatusUnauthorized)
			return
		}
		h.Log.WithError(err).Error("sign-in failed")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.Gates.ForSession(session.ID, session.Identity.UID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity":  session.Identity,
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"returnUrl": safeReturnURL(payload.ReturnURL),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ended, err := h.Auth.SignOut(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		h.Log.WithError(err).Error("sign-out failed")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}
	if ended.ID != "" {
		h.Gates.End(ended.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type bootstrapRecord struct {
	Collection string         `json:"collection"`
	Document   string         `json:"document"`
	Fields     map[string]any `json:"fields"`
	Command    string         `json:"command"`
}

type meResponse struct {
	UID        string            `json:"uid"`
	Email      string            `json:"email"`
	State      service.GateState `json:"state"`
	Role       domain.Role       `json:"role"`
	ClubAccess []string          `json:"clubAccess"`
	Retry      bool              `json:"retry,omitempty"`
	Bootstrap  *bootstrapRecord  `json:"bootstrap,omitempty"`
}

// me shows the signed-in identity, its role state and, while no role is
// granted, the record to provision for it.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return
	}

	gate := h.Gates.ForSession(session.ID, session.Identity.UID)
	perms := gate.Permissions()

	resp := meResponse{
		UID:        session.Identity.UID,
		Email:      session.Identity.Email,
		State:      perms.State,
		Role:       perms.Role,
		ClubAccess: perms.ClubAccess,
		Retry:      perms.State == service.GateErrored,
	}
	if resp.ClubAccess == nil {
		resp.ClubAccess = []string{}
	}
	if perms.State == service.GateResolved && perms.Role == domain.RoleNone {
		resp.Bootstrap = &bootstrapRecord{
			Collection: domain.UsersCollection,
			Document:   session.Identity.UID,
			Fields: map[string]any{
				"email":      session.Identity.Email,
				"role":       domain.RoleSuperAdmin,
				"clubAccess": []string{},
				"createdAt":  time.Now().UTC(),
			},
			Command: "quickbar grant --uid " + session.Identity.UID + " --email " + session.Identity.Email + " --role super_admin",
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) reloadRole(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return
	}

	gate := h.Gates.ForSession(session.ID, session.Identity.UID)
	if err := gate.Reload(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, gateResponse{State: service.GateLoading})
}

func venueStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrVenueIDRequired),
		errors.Is(err, domain.ErrVenueIDReserved),
		errors.Is(err, domain.ErrVenueIDMalformed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrVenueExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrVenueNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireSuperAdmin(w, r) {
		return
	}
	dashboard, err := h.Venues.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) listClubs(w http.ResponseWriter, r *http.Request) {
	if !h.requireSuperAdmin(w, r) {
		return
	}
	venues, err := h.Venues.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func (h *Handler) createClub(w http.ResponseWriter, r *http.Request) {
	if !h.requireSuperAdmin(w, r) {
		return
	}
	var input service.VenueInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	venue, err := h.Venues.Create(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), venueStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

func (h *Handler) updateClub(w http.ResponseWriter, r *http.Request) {
	if !h.requireSuperAdmin(w, r) {
		return
	}
	var input service.VenueInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Venues.Update(r.Context(), mux.Vars(r)["id"], input); err != nil {
		http.Error(w, err.Error(), venueStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteClub(w http.ResponseWriter, r *http.Request) {
	if !h.requireSuperAdmin(w, r) {
		return
	}
	if err := h.Venues.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), venueStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type menuSection struct {
	Category domain.Category   `json:"category"`
	Items    []domain.MenuItem `json:"items"`
}

func (h *Handler) venueAdmin(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return
	}

	venue, err := h.Venues.Get(r.Context(), venueID)
	if err != nil {
		http.Error(w, err.Error(), venueStatus(err))
		return
	}
	items, err := h.Menu.List(r.Context(), venueID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	sections := make([]menuSection, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		section := menuSection{Category: category, Items: []domain.MenuItem{}}
		for _, item := range items {
			if item.Category == category {
				section.Items = append(section.Items, item)
			}
		}
		sections = append(sections, section)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"venue": venue,
		"menu":  sections,
	})
}

func menuStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMenuItemName),
		errors.Is(err, domain.ErrMenuItemPrice),
		errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMenuItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func decodeMenuInput(r *http.Request) (service.MenuItemInput, error) {
	var payload struct {
		Name     string          `json:"name"`
		Price    json.RawMessage `json:"price"`
		Category string          `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return service.MenuItemInput{}, err
	}
	input := service.MenuItemInput{Name: payload.Name, Category: payload.Category}
	if payload.Price != nil {
		input.Price = rawInput(payload.Price)
	}
	return input, nil
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return
	}
	input, err := decodeMenuInput(r)
	if err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	item, err := h.Menu.Add(r.Context(), venueID, input)
	if err != nil {
		http.Error(w, err.Error(), menuStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) editMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !h.requireVenue(w, r, vars["venueId"]) {
		return
	}
	input, err := decodeMenuInput(r)
	if err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.Menu.Edit(r.Context(), vars["venueId"], vars["itemId"], input); err != nil {
		http.Error(w, err.Error(), menuStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !h.requireVenue(w, r, vars["venueId"]) {
		return
	}
	if err := h.Menu.Delete(r.Context(), vars["venueId"], vars["itemId"]); err != nil {
		http.Error(w, err.Error(), menuStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !h.requireVenue(w, r, vars["venueId"]) {
		return
	}
	available, err := h.Menu.ToggleAvailability(r.Context(), vars["venueId"], vars["itemId"])
	if err != nil {
		http.Error(w, err.Error(), menuStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) venueQRCode(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return
	}
	png, err := h.QR.Generate(venueID)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline; filename=\""+venueID+"-qrcode.png\"")
	w.Write(png)
}

const dayLayout = "2006-01-02"

// venueStats shows the counters of one day, today by default, and the
// all-time revenue of the venue.
func (h *Handler) venueStats(w http.ResponseWriter, r *http.Request) {
	venueID := mux.Vars(r)["venueId"]
	if !h.requireVenue(w, r, venueID) {
		return
	}
	if h.Stats == nil {
		http.Error(w, "Stats unavailable", http.StatusServiceUnavailable)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse(dayLayout, raw)
		if err != nil {
			http.Error(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	daily, err := h.Stats.Daily(r.Context(), venueID, day)
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to read daily stats")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}
	total, err := h.Stats.VenueRevenue(r.Context(), venueID)
	if err != nil {
		h.Log.WithError(err).WithField("venue", venueID).Error("failed to read venue revenue")
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"venueId":      venueID,
		"day":          day.Format(dayLayout),
		"daily":        daily,
		"totalRevenue": total,
	})
}
