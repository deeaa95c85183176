package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// zeroDecimal lists currencies the provider bills in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// CurrencyExponent returns the number of minor-unit digits for an ISO 4217
// currency code.
func CurrencyExponent(currency string) int {
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// Money is an amount in the currency's minor units.
type Money struct {
	Minor    int64
	Currency string
}

// NewMoney builds a Money value, normalising the currency code.
func NewMoney(minor int64, currency string) Money {
	return Money{Minor: minor, Currency: strings.ToLower(currency)}
}

// Exponent returns the minor-unit digits of m's currency.
func (m Money) Exponent() int {
	return CurrencyExponent(m.Currency)
}

// Major formats m in major units, e.g. 999 usd -> "9.99".
func (m Money) Major() string {
	exp := m.Exponent()
	if exp == 0 {
		return strconv.FormatInt(m.Minor, 10)
	}

	sign := ""
	v := m.Minor
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= exp {
		s = strings.Repeat("0", exp-len(s)+1) + s
	}
	return sign + s[:len(s)-exp] + "." + s[len(s)-exp:]
}

func (m Money) String() string {
	return m.Major() + " " + strings.ToUpper(m.Currency)
}

// ParseMoney parses a major-unit decimal such as "9.99" into minor units.
// Trailing zeros beyond the currency's precision are accepted; significant
// digits beyond it are an error.
func ParseMoney(major, currency string) (Money, error) {
	exp := CurrencyExponent(currency)

	s := strings.TrimSpace(major)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > exp {
		if strings.Trim(frac[exp:], "0") != "" {
			return Money{}, fmt.Errorf("amount %q has more than %d decimal places", major, exp)
		}
		frac = frac[:exp]
	}
	frac += strings.Repeat("0", exp-len(frac))

	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", major, err)
	}
	if neg {
		v = -v
	}
	return NewMoney(v, currency), nil
}
