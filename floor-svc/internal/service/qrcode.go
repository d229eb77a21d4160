package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultQRGenerator renders the link customers scan to order from a table.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Link(tableID int) string {
	return fmt.Sprintf("%s/order?table=%d", g.BaseURL, tableID)
}

func (g DefaultQRGenerator) Generate(tableID int) ([]byte, error) {
	return qrcode.Encode(g.Link(tableID), qrcode.Medium, 256)
}
