package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/sirupsen/logrus"
)

var ErrReloadUnavailable = errors.New("reload is only offered after the role lookup failed")

// StoreRoleLookup reads role records from users/{uid}.
type StoreRoleLookup struct {
	Store docstore.Store
}

func (l StoreRoleLookup) LookupRole(ctx context.Context, uid string) (domain.UserRole, bool, error) {
	doc, err := l.Store.Get(ctx, domain.UsersCollection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.UserRole{}, false, nil
	}
	if err != nil {
		return domain.UserRole{}, false, err
	}
	var record domain.UserRole
	if err := doc.DataTo(&record); err != nil {
		return domain.UserRole{}, false, fmt.Errorf("decode role of %s: %w", uid, err)
	}
	record.UID = uid
	return record, true, nil
}

// RetryingLookup retries a failing lookup Retries more times, Delay apart.
// A missing record is an answer and is never retried.
type RetryingLookup struct {
	Lookup  RoleLookup
	Retries int
	Delay   time.Duration
	Log     logrus.FieldLogger
	Sleep   func(ctx context.Context, d time.Duration) error
}

func NewRetryingLookup(lookup RoleLookup, log logrus.FieldLogger) *RetryingLookup {
	return &RetryingLookup{Lookup: lookup, Retries: 3, Delay: 2 * time.Second, Log: log, Sleep: sleepContext}
}

func (r *RetryingLookup) LookupRole(ctx context.Context, uid string) (domain.UserRole, bool, error) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return domain.UserRole{}, false, err
			}
		}
		record, found, err := r.Lookup.LookupRole(ctx, uid)
		if err == nil {
			return record, found, nil
		}
		lastErr = err
		if r.Log != nil {
			r.Log.WithError(err).WithFields(logrus.Fields{"uid": uid, "attempt": attempt + 1}).Warn("role lookup failed")
		}
	}
	return domain.UserRole{}, false, fmt.Errorf("role lookup failed after %d retries: %w", r.Retries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type GateState string

const (
	GateUninitialized GateState = "uninitialized"
	GateLoading       GateState = "loading"
	GateResolved      GateState = "resolved"
	GateErrored       GateState = "errored"
)

// Access is the answer of the gate for one venue.
type Access string

const (
	AccessLoading     Access = "loading"
	AccessGranted     Access = "granted"
	AccessDenied      Access = "denied"
	AccessUnavailable Access = "unavailable"
)

// Permissions is a snapshot of the gate.
type Permissions struct {
	State      GateState   `json:"state"`
	Role       domain.Role `json:"role"`
	ClubAccess []string    `json:"clubAccess"`
	Err        error       `json:"-"`
}

func (p Permissions) IsSuperAdmin() bool {
	return p.State == GateResolved && p.Role == domain.RoleSuperAdmin
}

// Access decides for venueID. It is never denied before resolution completes.
func (p Permissions) Access(venueID string) Access {
	switch p.State {
	case GateResolved:
		if CanAccessClub(p.Role, p.ClubAccess, venueID) {
			return AccessGranted
		}
		return AccessDenied
	case GateErrored:
		return AccessUnavailable
	default:
		return AccessLoading
	}
}

// SuperAdminAccess is Access for the screens reserved to super admins.
func (p Permissions) SuperAdminAccess() Access {
	switch p.State {
	case GateResolved:
		if p.Role == domain.RoleSuperAdmin {
			return AccessGranted
		}
		return AccessDenied
	case GateErrored:
		return AccessUnavailable
	default:
		return AccessLoading
	}
}

func CanAccessClub(role domain.Role, clubAccess []string, venueID string) bool {
	if role == domain.RoleSuperAdmin {
		return true
	}
	return role == domain.RoleClubAdmin && slices.Contains(clubAccess, venueID)
}

// RoleGate resolves the identity of one admin session to its permissions.
type RoleGate struct {
	lookup RoleLookup
	log    logrus.FieldLogger

	mu      sync.Mutex
	uid     string
	perms   Permissions
	gen     uint64
	settled chan struct{}
	cancel  context.CancelFunc
}

func NewRoleGate(lookup RoleLookup, log logrus.FieldLogger) *RoleGate {
	settled := make(chan struct{})
	close(settled)
	return &RoleGate{
		lookup:  lookup,
		log:     log,
		perms:   Permissions{State: GateUninitialized},
		settled: settled,
	}
}

// SetIdentity starts resolving uid. An empty uid is a signed-out session and
// resolves to no role without a lookup.
func (g *RoleGate) SetIdentity(uid string) {
	g.mu.Lock()
	if uid != "" && uid == g.uid && g.perms.State != GateUninitialized {
		g.mu.Unlock()
		return
	}
	ctx, gen := g.nextLocked()
	g.uid = uid

	if uid == "" {
		g.perms = Permissions{State: GateResolved, Role: domain.RoleNone, ClubAccess: []string{}}
		g.signalLocked()
		g.mu.Unlock()
		return
	}

	g.perms = Permissions{State: GateLoading}
	g.signalLocked()
	g.settled = make(chan struct{})
	g.mu.Unlock()

	go g.resolve(ctx, gen, uid)
}

// nextLocked starts a new resolution generation, cancelling the lookup of the
// previous one.
func (g *RoleGate) nextLocked() (context.Context, uint64) {
	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.gen++
	return ctx, g.gen
}

// Close cancels any lookup in flight.
func (g *RoleGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
}

func (g *RoleGate) signalLocked() {
	select {
	case <-g.settled:
	default:
		close(g.settled)
	}
}

func (g *RoleGate) resolve(ctx context.Context, gen uint64, uid string) {
	record, found, err := g.lookup.LookupRole(ctx, uid)

	perms := Permissions{State: GateResolved, Role: domain.RoleNone, ClubAccess: []string{}}
	switch {
	case err != nil:
		perms = Permissions{State: GateErrored, Role: domain.RoleNone, ClubAccess: []string{}, Err: err}
	case found:
		perms.Role = record.Role
		if record.Role == domain.RoleClubAdmin {
			perms.ClubAccess = append([]string{}, record.ClubAccess...)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	g.perms = perms
	g.signalLocked()

	log := g.log.WithFields(logrus.Fields{"uid": uid, "state": perms.State, "role": perms.Role})
	if err != nil {
		log.WithError(err).Error("role resolution failed")
	} else {
		log.Info("role resolved")
	}
}

func (g *RoleGate) Permissions() Permissions {
	g.mu.Lock()
	defer g.mu.Unlock()
	perms := g.perms
	perms.ClubAccess = append([]string(nil), g.perms.ClubAccess...)
	return perms
}

func (g *RoleGate) UID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uid
}

// Wait blocks until the gate leaves the loading state or ctx is done, and
// returns the permissions at that point.
func (g *RoleGate) Wait(ctx context.Context) Permissions {
	g.mu.Lock()
	settled := g.settled
	g.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
	}
	return g.Permissions()
}

// Reload restarts resolution. It is only offered in the errored state.
func (g *RoleGate) Reload() error {
	g.mu.Lock()
	if g.perms.State != GateErrored {
		g.mu.Unlock()
		return ErrReloadUnavailable
	}
	ctx, gen := g.nextLocked()
	uid := g.uid
	g.perms = Permissions{State: GateLoading}
	g.signalLocked()
	g.settled = make(chan struct{})
	g.mu.Unlock()

	go g.resolve(ctx, gen, uid)
	return nil
}

type gateEntry struct {
	gate     *RoleGate
	lastSeen time.Time
}

// RoleGates holds one RoleGate per signed-in admin session.
type RoleGates struct {
	lookup RoleLookup
	log    logrus.FieldLogger

	mu    sync.Mutex
	gates map[string]*gateEntry
	now   func() time.Time
}

func NewRoleGates(lookup RoleLookup, log logrus.FieldLogger) *RoleGates {
	return &RoleGates{lookup: lookup, log: log, gates: make(map[string]*gateEntry), now: time.Now}
}

// ForSession returns the gate of sessionID, resolving uid on first use.
func (r *RoleGates) ForSession(sessionID, uid string) *RoleGate {
	r.mu.Lock()
	entry, ok := r.gates[sessionID]
	if !ok {
		entry = &gateEntry{gate: NewRoleGate(r.lookup, r.log)}
		r.gates[sessionID] = entry
	}
	entry.lastSeen = r.now()
	r.mu.Unlock()

	entry.gate.SetIdentity(uid)
	return entry.gate
}

// End signs the session out of its gate and forgets it.
func (r *RoleGates) End(sessionID string) {
	r.mu.Lock()
	entry, ok := r.gates[sessionID]
	delete(r.gates, sessionID)
	r.mu.Unlock()

	if ok {
		entry.gate.SetIdentity("")
	}
}

// Sweep forgets gates unused for idle.
func (r *RoleGates) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	var stale []*RoleGate
	for id, entry := range r.gates {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry.gate)
			delete(r.gates, id)
		}
	}
	r.mu.Unlock()

	for _, gate := range stale {
		gate.Close()
	}
	return len(stale)
}
