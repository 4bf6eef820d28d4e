package service

import (
	"regexp"
	"strconv"
	"strings"

	"quickbar/internal/domain"

	"github.com/shopspring/decimal"
)

// TipPercentages are the presets offered on the tip screen.
var TipPercentages = []int{0, 15, 20, 25}

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ClampQuantity reads the leading integer of raw input and clamps it to
// [0, MaxLineQuantity]. Input without a leading integer counts as 0.
func ClampQuantity(raw string) int {
	digits := leadingInt.FindString(strings.TrimSpace(raw))
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// overflow: keep the sign
		if strings.HasPrefix(digits, "-") {
			return 0
		}
		return domain.MaxLineQuantity
	}
	switch {
	case n < 0:
		return 0
	case n > domain.MaxLineQuantity:
		return domain.MaxLineQuantity
	default:
		return int(n)
	}
}

// ParseCustomTip reads the leading decimal of raw input, rounded to cents.
// Unparseable or negative input is a zero tip.
func ParseCustomTip(raw string) float64 {
	number := leadingFloat.FindString(strings.TrimSpace(raw))
	if number == "" {
		return 0
	}
	v, err := decimal.NewFromString(number)
	if err != nil || v.IsNegative() {
		return 0
	}
	return v.Round(2).InexactFloat64()
}

// PercentTip is round2(subtotal x percent / 100).
func PercentTip(subtotal decimal.Decimal, percent int) float64 {
	return subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// Cart maps menu item id to requested quantity.
type Cart map[string]int

// Lines joins the cart against the menu. Items missing from the menu and zero
// quantities are dropped.
func (c Cart) Lines(menu []domain.MenuItem) []domain.LineItem {
	var lines []domain.LineItem
	for _, item := range menu {
		qty := c[item.ID]
		if qty <= 0 {
			continue
		}
		lines = append(lines, domain.LineItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      domain.Round2(item.Price),
			Category:   item.Category,
			Quantity:   qty,
		})
	}
	return lines
}

func (c Cart) ItemCount(menu []domain.MenuItem) int {
	count := 0
	for _, line := range c.Lines(menu) {
		count += line.Quantity
	}
	return count
}

func (c Cart) Subtotal(menu []domain.MenuItem) decimal.Decimal {
	return domain.Subtotal(c.Lines(menu))
}
