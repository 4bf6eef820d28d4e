package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"
)

var (
	ErrUnknownRole    = errors.New("role must be club_admin, super_admin or none")
	ErrUIDRequired    = errors.New("uid is required")
	ErrClubAccessRole = errors.New("club_admin needs at least one club")
)

type GrantInput struct {
	UID         string
	Email       string
	DisplayName string
	Role        string
	ClubAccess  []string
}

// UserService provisions role records under users/{uid}. There is no screen
// for it; operators run it from the command line.
type UserService struct {
	store docstore.Store
	now   func() time.Time
}

func NewUserService(store docstore.Store) *UserService {
	return &UserService{store: store, now: time.Now}
}

func parseRole(s string) (domain.Role, error) {
	switch domain.Role(strings.TrimSpace(s)) {
	case domain.RoleSuperAdmin:
		return domain.RoleSuperAdmin, nil
	case domain.RoleClubAdmin:
		return domain.RoleClubAdmin, nil
	case "none":
		return domain.RoleNone, nil
	}
	return "", ErrUnknownRole
}

// Grant writes the role record. Role none removes it, which revokes every
// admin screen on the next role resolution.
func (s *UserService) Grant(ctx context.Context, input GrantInput) (*domain.UserRole, error) {
	uid := strings.TrimSpace(input.UID)
	if uid == "" {
		return nil, ErrUIDRequired
	}
	role, err := parseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleNone {
		err := s.store.Delete(ctx, domain.UsersCollection, uid)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
		return nil, nil
	}

	clubs := []string{}
	for _, id := range input.ClubAccess {
		if id = strings.TrimSpace(id); id != "" {
			clubs = append(clubs, id)
		}
	}
	if role == domain.RoleClubAdmin && len(clubs) == 0 {
		return nil, ErrClubAccessRole
	}

	record := domain.UserRole{
		Role:        role,
		ClubAccess:  clubs,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		CreatedAt:   s.now().UTC(),
	}
	if existing, found, err := (StoreRoleLookup{Store: s.store}).LookupRole(ctx, uid); err != nil {
		return nil, err
	} else if found {
		record.CreatedAt = existing.CreatedAt
		if record.Email == "" {
			record.Email = existing.Email
		}
		if record.DisplayName == "" {
			record.DisplayName = existing.DisplayName
		}
	}

	if err := s.store.Set(ctx, domain.UsersCollection, uid, record); err != nil {
		return nil, err
	}
	record.UID = uid
	return &record, nil
}
