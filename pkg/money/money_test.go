package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRound_HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"1.015", "1.02"},
		{"2.675", "2.68"},
		{"0", "0"},
		{"925", "925"},
		{"138.749", "138.75"},
	}
	for _, tc := range cases {
		assert.True(t, dec(tc.want).Equal(Round(dec(tc.in))), "Round(%s)", tc.in)
	}
}

func TestRound_Exponent(t *testing.T) {
	got := Round(dec("10.12345"))
	assert.GreaterOrEqual(t, got.Exponent(), int32(-2))
}

func TestDailyRate(t *testing.T) {
	// 9.02% annual -> 0.00024712 daily (8dp, half-up)
	got := DailyRate(dec("0.0902"))
	assert.True(t, dec("0.00024712").Equal(got), "got %s", got)
	assert.GreaterOrEqual(t, got.Exponent(), int32(-8))
}

func TestPercent(t *testing.T) {
	assert.True(t, dec("0.15").Equal(Percent(dec("15"))))
}

func TestRound_DriftBound(t *testing.T) {
	// 7 equal shares of 100.00: each rounds to 14.29, sum 100.03.
	pool := dec("100")
	shares := decimal.NewFromInt(7)
	part := Round(pool.Div(shares))
	sum := part.Mul(shares)
	diff := sum.Sub(pool).Abs()
	bound := dec("0.005").Mul(shares)
	assert.True(t, diff.LessThanOrEqual(bound), "drift %s beyond bound %s", diff, bound)
}
