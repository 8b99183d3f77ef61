package gateway

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	msisdnRe   = regexp.MustCompile(`^254(7|1)\d{8}$`)
	amountMin  = decimal.NewFromInt(1)
	amountMax  = decimal.NewFromInt(70000)
)

// FormatPhoneNumber normalizes local Kenyan formats (0712..., 712...,
// +254712..., spaced or punctuated) to the 2547XXXXXXXX form Daraja requires.
// When the input cannot be confidently normalized it is returned stripped of
// punctuation but otherwise unchanged; validation is a separate concern.
func FormatPhoneNumber(phone string) string {
	digits := nonDigitRe.ReplaceAllString(strings.TrimSpace(phone), "")

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return digits
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "254" + digits[1:]
	case len(digits) == 9 && (strings.HasPrefix(digits, "7") || strings.HasPrefix(digits, "1")):
		return "254" + digits
	}
	return digits
}

// IsValidPhoneNumber reports whether phone is an already-normalized
// Safaricom MSISDN.
func IsValidPhoneNumber(phone string) bool {
	return msisdnRe.MatchString(phone)
}

// IsValidAmount checks the gateway-imposed STK push range of 1 to 70,000 KES.
func IsValidAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(amountMin) && amount.LessThanOrEqual(amountMax)
}
