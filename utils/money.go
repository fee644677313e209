package utils

import (
    "strings"

    "github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places for supported currencies.
const minorUnitExponent = 2

// MinorToMajor converts an amount in minor units (cents) into a decimal.
func MinorToMajor(amount int64) decimal.Decimal {
    return decimal.New(amount, -minorUnitExponent)
}

// FormatAmount renders minor units for display, e.g. 12345 usd -> "123.45 USD".
func FormatAmount(amount int64, currency string) string {
    s := MinorToMajor(amount).StringFixed(minorUnitExponent)
    if currency == "" {
        return s
    }
    return s + " " + strings.ToUpper(currency)
}
