package billing

import "github.com/shopspring/decimal"

// VATCategory classifies a line item for VAT purposes
type VATCategory string

// VAT categories per the NBR schedule
const (
	VATStandard VATCategory = "STANDARD" // 15%
	VATReduced  VATCategory = "REDUCED"  // 7.5%
	VATZero     VATCategory = "ZERO"     // 0%, reclaimable
	VATExempt   VATCategory = "EXEMPT"   // outside the VAT net
)

// IsValid checks if the VAT category is valid
func (c VATCategory) IsValid() bool {
	switch c {
	case VATStandard, VATReduced, VATZero, VATExempt:
		return true
	}
	return false
}

// Rate returns the VAT rate for the category as a decimal fraction
func (c VATCategory) Rate() decimal.Decimal {
	switch c {
	case VATStandard:
		return decimal.NewFromFloat(0.15)
	case VATReduced:
		return decimal.NewFromFloat(0.075)
	default:
		return decimal.Zero
	}
}
