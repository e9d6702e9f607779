package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

// bruteSMA 逐窗口求平均的朴素实现，用于对照
func bruteSMA(prices []decimal.Decimal, period int) []decimal.Decimal {
	if len(prices) < period {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		sum := decimal.Zero
		for j := i - period + 1; j <= i; j++ {
			sum = sum.Add(prices[j])
		}
		out = append(out, sum.Div(decimal.NewFromInt(int64(period))))
	}
	return out
}

func TestSMASeriesMatchesBruteForce(t *testing.T) {
	prices := decimals(10, 11, 12, 13, 15, 14, 13, 16, 18, 17, 19, 20)
	for _, period := range []int{1, 2, 3, 5, 12} {
		fast := SMASeries(prices, period)
		slow := bruteSMA(prices, period)
		require.Len(t, fast, len(prices)-period+1, "period %d", period)
		require.Len(t, fast, len(slow))
		for i := range fast {
			assert.True(t, fast[i].Sub(slow[i]).Abs().LessThan(decimal.NewFromFloat(1e-9)),
				"period %d index %d: %s != %s", period, i, fast[i], slow[i])
		}
	}
}

func TestSMASeriesInsufficientData(t *testing.T) {
	assert.Nil(t, SMASeries(decimals(1, 2, 3), 4))
	assert.Nil(t, SMASeries(nil, 5))
	_, ok := SMA(decimals(1, 2), 3)
	assert.False(t, ok)
}

func TestRSIWithinBounds(t *testing.T) {
	prices := decimals(44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10,
		45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03,
		46.41, 46.22, 45.64)
	rsi := RSI(prices, DefaultRSIPeriod)
	assert.True(t, rsi.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, rsi.LessThanOrEqual(decimal.NewFromInt(100)))
	// 结果保留两位小数
	assert.True(t, rsi.Exponent() >= -2)
}

func TestRSIAllGainsReturns100(t *testing.T) {
	prices := make([]decimal.Decimal, 20)
	for i := range prices {
		prices[i] = decimal.NewFromInt(int64(100 + i))
	}
	assert.True(t, RSI(prices, DefaultRSIPeriod).Equal(decimal.NewFromInt(100)))
}

func TestRSIInsufficientDataReturnsNeutral(t *testing.T) {
	assert.True(t, RSI(decimals(1, 2, 3), DefaultRSIPeriod).Equal(RSINeutral))
	assert.True(t, RSI(nil, DefaultRSIPeriod).Equal(RSINeutral))
	// 恰好等于 period 条仍然不足
	assert.True(t, RSI(decimals(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14), DefaultRSIPeriod).Equal(RSINeutral))
}

func TestRSIAllLossesNearZero(t *testing.T) {
	prices := make([]decimal.Decimal, 20)
	for i := range prices {
		prices[i] = decimal.NewFromInt(int64(100 - i))
	}
	rsi := RSI(prices, DefaultRSIPeriod)
	assert.True(t, rsi.Equal(decimal.Zero), "got %s", rsi)
}

func TestRecommendThresholds(t *testing.T) {
	assert.Equal(t, RecommendationSell, Recommend(decimal.NewFromFloat(70.01)))
	assert.Equal(t, RecommendationHold, Recommend(decimal.NewFromInt(70)))
	assert.Equal(t, RecommendationHold, Recommend(decimal.NewFromInt(50)))
	assert.Equal(t, RecommendationHold, Recommend(decimal.NewFromInt(30)))
	assert.Equal(t, RecommendationBuy, Recommend(decimal.NewFromFloat(29.99)))
}
