package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/shopspring/decimal"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItemInput is the admin form. Price is the raw text field.
type MenuItemInput struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type menuFields struct {
	name     string
	price    float64
	category domain.Category
}

func (in MenuItemInput) validate() (menuFields, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return menuFields{}, domain.ErrMenuItemName
	}
	number := leadingFloat.FindString(strings.TrimSpace(in.Price))
	if number == "" {
		return menuFields{}, domain.ErrMenuItemPrice
	}
	price, err := decimal.NewFromString(number)
	if err != nil || price.IsNegative() {
		return menuFields{}, domain.ErrMenuItemPrice
	}
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return menuFields{}, err
	}
	return menuFields{name: name, price: price.Round(2).InexactFloat64(), category: category}, nil
}

type MenuService struct {
	store docstore.Store
	now   func() time.Time
}

func NewMenuService(store docstore.Store) *MenuService {
	return &MenuService{store: store, now: time.Now}
}

// List returns the menu in display order.
func (s *MenuService) List(ctx context.Context, venueID string) ([]domain.MenuItem, error) {
	docs, err := s.store.List(ctx, docstore.Collection(domain.MenuCollection(venueID)))
	if err != nil {
		return nil, err
	}
	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		var item domain.MenuItem
		if err := doc.DataTo(&item); err != nil {
			continue
		}
		item.ID = doc.ID
		items = append(items, item)
	}
	domain.SortMenu(items)
	return items, nil
}

func (s *MenuService) Add(ctx context.Context, venueID string, input MenuItemInput) (*domain.MenuItem, error) {
	fields, err := input.validate()
	if err != nil {
		return nil, err
	}

	item := &domain.MenuItem{
		Name:      fields.name,
		Price:     fields.price,
		Category:  fields.category,
		Available: true,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.Create(ctx, domain.MenuCollection(venueID), item)
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	item.ID = id
	return item, nil
}

func (s *MenuService) Edit(ctx context.Context, venueID, itemID string, input MenuItemInput) error {
	fields, err := input.validate()
	if err != nil {
		return err
	}

	return s.update(ctx, venueID, itemID, map[string]any{
		"name":      fields.name,
		"price":     fields.price,
		"category":  fields.category,
		"updatedAt": s.now().UTC(),
	})
}

// ToggleAvailability flips the item and returns the new availability.
func (s *MenuService) ToggleAvailability(ctx context.Context, venueID, itemID string) (bool, error) {
	doc, err := s.store.Get(ctx, domain.MenuCollection(venueID), itemID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, ErrMenuItemNotFound
	}
	if err != nil {
		return false, err
	}
	var item domain.MenuItem
	if err := doc.DataTo(&item); err != nil {
		return false, err
	}

	available := !item.Available
	if err := s.update(ctx, venueID, itemID, map[string]any{
		"available": available,
		"updatedAt": s.now().UTC(),
	}); err != nil {
		return false, err
	}
	return available, nil
}

func (s *MenuService) Delete(ctx context.Context, venueID, itemID string) error {
	return s.store.Delete(ctx, domain.MenuCollection(venueID), itemID)
}

func (s *MenuService) update(ctx context.Context, venueID, itemID string, fields map[string]any) error {
	err := s.store.Update(ctx, domain.MenuCollection(venueID), itemID, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrMenuItemNotFound
	}
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return nil
}
