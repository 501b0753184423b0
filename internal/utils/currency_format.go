package utils

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// LookupCurrency returns the ISO 4217 currency for code, or nil if the code is unknown.
func LookupCurrency(code string) *money.Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return nil
	}
	return money.GetCurrency(code)
}

// CurrencyFraction returns the number of minor-unit digits of a currency, 2 for unknown codes.
func CurrencyFraction(code string) int {
	cur := LookupCurrency(code)
	if cur == nil {
		return 2
	}
	return cur.Fraction
}

// FormatWithCurrencyPrecision rounds an amount to the minor-unit precision of a currency.
// Example: 12.3456 AUD returns "12.35", 12.3456 JPY returns "12".
func FormatWithCurrencyPrecision(amount decimal.Decimal, code string) string {
	return amount.StringFixed(int32(CurrencyFraction(code)))
}
