package money

import "github.com/shopspring/decimal"

// The cooperative's books were kept in spreadsheets that rounded every
// intermediate figure to 2 decimal places, half-up. Every derived monetary
// value in this codebase goes through Round at the point it is produced,
// never once at the end of a chain. Summing N independently rounded shares
// of a pool therefore does not equal the rounded whole; the drift is bounded
// by N*0.005 and is expected.

const (
	moneyPlaces = 2
	ratePlaces  = 8
)

var (
	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// Round rounds a monetary value to 2 decimal places, half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// RoundRate rounds a daily interest rate to 8 decimal places.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(ratePlaces)
}

// DailyRate derives the daily coupon rate from an annual rate using a fixed
// 365-day year.
func DailyRate(annual decimal.Decimal) decimal.Decimal {
	return RoundRate(annual.Div(daysPerYear))
}

// Percent converts a stored percentage figure (15 meaning 15%) into the
// fraction used in arithmetic.
func Percent(d decimal.Decimal) decimal.Decimal {
	return d.Div(hundred)
}
