package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyPriceTracksDayRange(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	inst := &Instrument{
		Symbol:       "AAPL",
		CurrentPrice: decimal.NewFromInt(100),
		BasePrice:    decimal.NewFromInt(100),
	}

	inst.ApplyPrice(decimal.NewFromInt(105), now)
	inst.ApplyPrice(decimal.NewFromInt(98), now.Add(time.Minute))
	inst.ApplyPrice(decimal.NewFromInt(102), now.Add(2*time.Minute))

	assert.True(t, inst.DayHigh.Equal(decimal.NewFromInt(105)))
	assert.True(t, inst.DayLow.Equal(decimal.NewFromInt(98)))
	assert.True(t, inst.CurrentPrice.Equal(decimal.NewFromInt(102)))
	assert.True(t, inst.PreviousClose.Equal(decimal.NewFromInt(98)))
}

func TestApplyPriceResetsDayRangeAcrossDays(t *testing.T) {
	day1 := time.Date(2026, 8, 27, 15, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 28, 9, 30, 0, 0, time.Local)
	inst := &Instrument{
		Symbol:       "AAPL",
		CurrentPrice: decimal.NewFromInt(100),
		BasePrice:    decimal.NewFromInt(100),
	}

	inst.ApplyPrice(decimal.NewFromInt(120), day1)
	inst.ApplyPrice(decimal.NewFromInt(80), day1.Add(time.Hour))

	// 跨自然日后高低价从首个 tick 重新起算
	inst.ApplyPrice(decimal.NewFromInt(101), day2)
	assert.True(t, inst.DayHigh.Equal(decimal.NewFromInt(101)))
	assert.True(t, inst.DayLow.Equal(decimal.NewFromInt(101)))

	inst.ApplyPrice(decimal.NewFromInt(103), day2.Add(time.Minute))
	assert.True(t, inst.DayHigh.Equal(decimal.NewFromInt(103)))
	assert.True(t, inst.DayLow.Equal(decimal.NewFromInt(101)))
}
