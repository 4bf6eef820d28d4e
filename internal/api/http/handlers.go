package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quickbar/internal/auth"
	"quickbar/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Customers *service.Registry[*service.CustomerSession]
	Staff     *service.Registry[*service.StaffQueue]
	Menu      service.MenuServiceInterface
	Venues    service.VenueServiceInterface
	QR        service.QRGenerator
	// Stats is optional; without it the stats screen answers 503.
	Stats     service.StatsReader
	Auth      *auth.Service
	Gates     *service.RoleGates
	Log       logrus.FieldLogger

	// SettleTimeout bounds how long a screen request waits for its first snapshots.
	SettleTimeout time.Duration
	// GateWait bounds how long a guarded request waits for role resolution.
	GateWait      time.Duration
	SecureCookies bool
}

func NewHandler(
	customers *service.Registry[*service.CustomerSession],
	staff *service.Registry[*service.StaffQueue],
	menu service.MenuServiceInterface,
	venues service.VenueServiceInterface,
	qr service.QRGenerator,
	authSvc *auth.Service,
	gates *service.RoleGates,
	log logrus.FieldLogger,
) *Handler {
	return &Handler{
		Customers:     customers,
		Staff:         staff,
		Menu:          menu,
		Venues:        venues,
		QR:            qr,
		Auth:          authSvc,
		Gates:         gates,
		Log:           log,
		SettleTimeout: 2 * time.Second,
		GateWait:      2 * time.Second,
	}
}

// RegisterRoutes mounts every screen. Fixed paths come before the venue catch-all.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/admin/login", h.login).Methods("POST")
	r.HandleFunc("/admin/logout", h.logout).Methods("POST")
	r.HandleFunc("/admin/me", h.me).Methods("GET")
	r.HandleFunc("/admin/me/reload", h.reloadRole).Methods("POST")
	r.HandleFunc("/admin", h.dashboard).Methods("GET")
	r.HandleFunc("/admin/clubs", h.listClubs).Methods("GET")
	r.HandleFunc("/admin/clubs", h.createClub).Methods("POST")
	r.HandleFunc("/admin/clubs/{id}", h.updateClub).Methods("PUT")
	r.HandleFunc("/admin/clubs/{id}", h.deleteClub).Methods("DELETE")

	r.HandleFunc("/{venueId}/admin", h.venueAdmin).Methods("GET")
	r.HandleFunc("/{venueId}/admin/menu", h.addMenuItem).Methods("POST")
	r.HandleFunc("/{venueId}/admin/menu/{itemId}", h.editMenuItem).Methods("PUT")
	r.HandleFunc("/{venueId}/admin/menu/{itemId}", h.deleteMenuItem).Methods("DELETE")
	r.HandleFunc("/{venueId}/admin/menu/{itemId}/availability", h.toggleMenuItem).Methods("POST")
	r.HandleFunc("/{venueId}/admin/qrcode", h.venueQRCode).Methods("GET")
	r.HandleFunc("/{venueId}/admin/stats", h.venueStats).Methods("GET")

	r.HandleFunc("/{venueId}/tablette", h.staffQueue).Methods("GET")
	r.HandleFunc("/{venueId}/tablette/events", h.staffEvents).Methods("GET")
	r.HandleFunc("/{venueId}/tablette/orders/{orderId}/ready", h.markReady).Methods("POST")
	r.HandleFunc("/{venueId}/tablette/orders/{orderId}", h.removeOrder).Methods("DELETE")
	r.HandleFunc("/{venueId}/tablette/toggle", h.toggleOrders).Methods("POST")

	r.HandleFunc("/{venueId}/start", h.startPage).Methods("GET")
	r.HandleFunc("/{venueId}/events", h.customerEvents).Methods("GET")
	r.HandleFunc("/{venueId}/cart/{itemId}", h.setQuantity).Methods("PUT")
	r.HandleFunc("/{venueId}/checkout", h.checkout).Methods("POST")
	r.HandleFunc("/{venueId}/tip", h.setTip).Methods("POST")
	r.HandleFunc("/{venueId}/tip/cancel", h.cancelTip).Methods("POST")
	r.HandleFunc("/{venueId}/confirm", h.confirm).Methods("POST")
	r.HandleFunc("/{venueId}/session", h.leave).Methods("DELETE")
	r.HandleFunc("/{venueId}", h.customerScreen).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "quickbar",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// settle waits until ready(view()) holds, a change times out or ctx ends, and
// returns the latest view.
func settle[V any](ctx context.Context, changes func() (<-chan struct{}, func()), view func() V, ready func(V) bool, max time.Duration) V {
	signals, stop := changes()
	defer stop()
	timer := time.NewTimer(max)
	defer timer.Stop()

	for {
		v := view()
		if ready(v) {
			return v
		}
		select {
		case <-signals:
		case <-timer.C:
			return view()
		case <-ctx.Done():
			return view()
		}
	}
}
