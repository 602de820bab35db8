package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
)

// fingerprint derives the stacking key for a cart item. Two lines with the
// same product, roll, dimensions and rate configuration collapse into one
// item with a summed quantity; quantity itself is excluded from the key.
func fingerprint(item *models.CartItem) string {
	parts := []string{
		item.ProductID.String(),
		uuidKey(item.RollID),
		item.PricingMethod.String(),
		item.UnitPrice.String(),
		item.SizeUnit.String(),
		decimalKey(item.Width),
		decimalKey(item.Height),
		decimalKey(item.RollRate),
		decimalKey(item.OffcutRate),
		boolKey(item.UseOffcutRate),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func uuidKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
