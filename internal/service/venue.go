package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/sirupsen/logrus"
)

var ErrVenueExists = errors.New("a venue with this id already exists")

const (
	wifiNotConfigured = "WiFi non configuré"
	venueNotFound     = "Établissement non trouvé"
)

type VenueInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Active       *bool  `json:"active"`
	WifiSSID     string `json:"wifiSSID"`
	WifiPassword string `json:"wifiPassword"`
}

// StartInfo is the WiFi gate shown before the menu.
type StartInfo struct {
	VenueID      string `json:"venueId"`
	Found        bool   `json:"found"`
	Name         string `json:"name,omitempty"`
	WifiSSID     string `json:"wifiSSID"`
	WifiPassword string `json:"wifiPassword"`
	MenuPath     string `json:"menuPath"`
}

type Dashboard struct {
	TotalClubs   int            `json:"totalClubs"`
	ActiveClubs  int            `json:"activeClubs"`
	TotalRevenue float64        `json:"totalRevenue"`
	RevenueError bool           `json:"revenueError,omitempty"`
	Clubs        []domain.Venue `json:"clubs"`
}

type VenueService struct {
	store docstore.Store
	stats StatsStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewVenueService(store docstore.Store, stats StatsStore, log logrus.FieldLogger) *VenueService {
	return &VenueService{store: store, stats: stats, log: log, now: time.Now}
}

// List returns every venue ordered by name.
func (s *VenueService) List(ctx context.Context) ([]domain.Venue, error) {
	docs, err := s.store.List(ctx, docstore.Collection(domain.VenuesCollection).Sort("name", docstore.Asc))
	if err != nil {
		return nil, err
	}
	venues := make([]domain.Venue, 0, len(docs))
	for _, doc := range docs {
		var venue domain.Venue
		if err := doc.DataTo(&venue); err != nil {
			s.log.WithError(err).WithField("venue", doc.ID).Warn("skipping malformed venue")
			continue
		}
		venue.ID = doc.ID
		venues = append(venues, venue)
	}
	return venues, nil
}

func (s *VenueService) Get(ctx context.Context, id string) (*domain.Venue, error) {
	doc, err := s.store.Get(ctx, domain.VenuesCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	var venue domain.Venue
	if err := doc.DataTo(&venue); err != nil {
		return nil, err
	}
	venue.ID = doc.ID
	return &venue, nil
}

// Create stores a venue under its explicit id with orders open.
func (s *VenueService) Create(ctx context.Context, input VenueInput) (*domain.Venue, error) {
	id := strings.TrimSpace(input.ID)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrVenueIDRequired
	}
	if err := domain.ValidateVenueID(id); err != nil {
		return nil, err
	}

	open := true
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	venue := &domain.Venue{
		Name:         name,
		WifiSSID:     input.WifiSSID,
		WifiPassword: input.WifiPassword,
		OrdersOpen:   &open,
		Active:       active,
		CreatedAt:    s.now().UTC(),
	}
	err := s.store.Insert(ctx, domain.VenuesCollection, id, venue)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, ErrVenueExists
	}
	if err != nil {
		return nil, fmt.Errorf("create venue: %w", err)
	}
	venue.ID = id
	s.log.WithField("venue", id).Info("venue created")
	return venue, nil
}

// Update edits the settings of a venue. The orders gate is left alone.
func (s *VenueService) Update(ctx context.Context, id string, input VenueInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.ErrVenueIDRequired
	}

	fields := map[string]any{
		"name":         name,
		"wifiSSID":     input.WifiSSID,
		"wifiPassword": input.WifiPassword,
		"updatedAt":    s.now().UTC(),
	}
	if input.Active != nil {
		fields["active"] = *input.Active
	}

	err := s.store.Update(ctx, domain.VenuesCollection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrVenueNotFound
	}
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return nil
}

// Delete removes the venue document. Its menu and orders are left in place.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, domain.VenuesCollection, id); err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	s.log.WithField("venue", id).Info("venue deleted")
	return nil
}

// StartInfo never fails: a missing venue or a read error shows the not-found text.
func (s *VenueService) StartInfo(ctx context.Context, id string) StartInfo {
	info := StartInfo{VenueID: id, MenuPath: "/" + id, WifiPassword: "..."}

	venue, err := s.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrVenueNotFound) {
			s.log.WithError(err).WithField("venue", id).Warn("failed to load start page")
		}
		info.WifiSSID = venueNotFound
		return info
	}

	info.Found = true
	info.Name = venue.Name
	info.WifiSSID = venue.WifiSSID
	if info.WifiSSID == "" {
		info.WifiSSID = wifiNotConfigured
	}
	if venue.WifiPassword != "" {
		info.WifiPassword = venue.WifiPassword
	}
	return info
}

// Dashboard counts venues and reads revenue from the stats store.
func (s *VenueService) Dashboard(ctx context.Context) (*Dashboard, error) {
	venues, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{TotalClubs: len(venues), Clubs: venues}
	for _, venue := range venues {
		if venue.Active {
			dashboard.ActiveClubs++
		}
	}

	if s.stats != nil {
		revenue, err := s.stats.Revenue(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to read revenue")
			dashboard.RevenueError = true
		} else {
			dashboard.TotalRevenue = revenue
		}
	}
	return dashboard, nil
}
