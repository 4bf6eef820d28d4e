package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	VenuesCollection = "venues"
	UsersCollection  = "users"
)

func MenuCollection(venueID string) string {
	return VenuesCollection + "/" + venueID + "/menu"
}

func OrdersCollection(venueID string) string {
	return VenuesCollection + "/" + venueID + "/orders"
}

// Venue is a tenant scope. Its id doubles as the first URL segment.
type Venue struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	WifiSSID        string     `json:"wifiSSID"`
	WifiPassword    string     `json:"wifiPassword"`
	OrdersOpen      *bool      `json:"ordersOpen,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	OrdersUpdatedAt *time.Time `json:"ordersUpdatedAt,omitempty"`
}

// AcceptsOrders reports the orders-open gate. A venue without the field accepts orders.
func (v Venue) AcceptsOrders() bool {
	return v.OrdersOpen == nil || *v.OrdersOpen
}

var reservedVenueIDs = map[string]bool{
	"admin":  true,
	"health": true,
	"api":    true,
}

var (
	ErrVenueIDRequired    = errors.New("venue id and name are required")
	ErrVenueIDReserved    = errors.New("venue id is reserved")
	ErrVenueIDMalformed   = errors.New("venue id must be a single url segment")
	ErrMenuItemName       = errors.New("menu item name is required")
	ErrMenuItemPrice      = errors.New("menu item price must be a non-negative number")
	ErrUnknownCategory    = errors.New("unknown menu category")
	ErrQuantityOutOfRange = errors.New("line quantity must be 1-20")
)

// ValidateVenueID checks that id can be used as a URL segment without shadowing a route.
func ValidateVenueID(id string) error {
	if id == "" {
		return ErrVenueIDRequired
	}
	if strings.ContainsAny(id, "/?#% ") {
		return ErrVenueIDMalformed
	}
	if reservedVenueIDs[strings.ToLower(id)] {
		return ErrVenueIDReserved
	}
	return nil
}

type Category string

const (
	CategoryBeverage Category = "boisson"
	CategoryDish     Category = "plat"
	CategoryDessert  Category = "dessert"
)

// Categories lists the menu sections in the order the admin screen shows them.
var Categories = []Category{CategoryBeverage, CategoryDish, CategoryDessert}

func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryDish, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

type MenuItem struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Category  Category   `json:"category"`
	Available bool       `json:"available"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SortMenu orders items by category, then by name.
func SortMenu(items []MenuItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
}

type Role string

const (
	RoleNone       Role = ""
	RoleClubAdmin  Role = "club_admin"
	RoleSuperAdmin Role = "super_admin"
)

// UserRole is the role record stored under users/{uid}.
type UserRole struct {
	UID         string    `json:"uid,omitempty"`
	Role        Role      `json:"role"`
	ClubAccess  []string  `json:"clubAccess"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	EventOrderCreated   = "order_created"
	EventOrderReady     = "order_ready"
	EventOrderCollected = "order_collected"
)

// OrderEvent is published on every lifecycle transition.
type OrderEvent struct {
	Type      string    `json:"type"`
	VenueID   string    `json:"venue_id"`
	OrderID   string    `json:"order_id"`
	Number    string    `json:"number"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// VenueStats are the counters of one venue for one day.
type VenueStats struct {
	Orders    int64   `json:"orders"`
	Ready     int64   `json:"ready"`
	Collected int64   `json:"collected"`
	Revenue   float64 `json:"revenue"`
}
