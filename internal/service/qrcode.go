package service

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultQRGenerator renders the table QR code pointing at the WiFi start page of a venue.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) URL(venueID string) string {
	return fmt.Sprintf("%s/%s/start", strings.TrimRight(g.BaseURL, "/"), venueID)
}

func (g DefaultQRGenerator) Generate(venueID string) ([]byte, error) {
	return qrcode.Encode(g.URL(venueID), qrcode.Medium, 256)
}

var _ QRGenerator = DefaultQRGenerator{}
