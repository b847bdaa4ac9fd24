package matter

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a loader has no currency on record
const DefaultCurrency = "USD"

// Money is an amount in minor units (cents) with an ISO 4217 code
type Money struct {
	Minor    int64  `json:"minor"`
	Currency string `json:"currency"`
}

// Cents builds Money in the default currency
func Cents(n int64) Money { return Money{Minor: n, Currency: DefaultCurrency} }

// IsZero reports a zero amount regardless of currency
func (m Money) IsZero() bool { return m.Minor == 0 }

// Major returns the amount in major units
func (m Money) Major() float64 { return float64(m.Minor) / 100 }

// Add sums two amounts; an empty currency adopts the other side
func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Minor: m.Minor + o.Minor, Currency: cur}
}

// Code returns the currency code, defaulting when unset
func (m Money) Code() string {
	if m.Currency == "" {
		return DefaultCurrency
	}
	return m.Currency
}

// Format renders the amount for a reader, eg "USD 12,500.00"
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(m.Code())
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(m.Major())))
}

// String formats in English
func (m Money) String() string { return m.Format(language.English) }
