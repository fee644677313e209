package utils

import "testing"

func TestFormatAmount(t *testing.T) {
    testCases := []struct {
        amount   int64
        currency string
        want     string
    }{
        {123, "usd", "1.23 USD"},
        {130, "usd", "1.30 USD"},
        {5, "usd", "0.05 USD"},
        {100000, "", "1000.00"},
        {-250, "usd", "-2.50 USD"},
    }

    for _, tc := range testCases {
        if got := FormatAmount(tc.amount, tc.currency); got != tc.want {
            t.Fatalf("FormatAmount(%d, %q): expected %q, got %q", tc.amount, tc.currency, tc.want, got)
        }
    }
}

func TestMinorToMajor(t *testing.T) {
    if got := MinorToMajor(12345).String(); got != "123.45" {
        t.Fatalf("expected 123.45, got %s", got)
    }
}
