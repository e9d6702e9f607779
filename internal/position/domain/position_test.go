package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invariantHolds TotalInvested == AverageCost × Quantity
func invariantHolds(t *testing.T, p *Position) {
	t.Helper()
	expected := p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
	assert.True(t, p.TotalInvested.Sub(expected).Abs().LessThan(decimal.NewFromFloat(1e-9)),
		"invested %s != avg %s x qty %d", p.TotalInvested, p.AverageCost, p.Quantity)
}

func TestApplyBuyAveragesCost(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	p.ApplyBuy(10, decimal.NewFromInt(100))
	p.ApplyBuy(10, decimal.NewFromInt(120))

	assert.EqualValues(t, 20, p.Quantity)
	assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(110)))
	assert.True(t, p.TotalInvested.Equal(decimal.NewFromInt(2200)))
	invariantHolds(t, p)
}

func TestApplySellKeepsAverageCost(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	p.ApplyBuy(10, decimal.NewFromInt(100))
	p.ApplyBuy(10, decimal.NewFromInt(120))

	require.NoError(t, p.ApplySell(5))
	assert.EqualValues(t, 15, p.Quantity)
	assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(110)))
	assert.True(t, p.TotalInvested.Equal(decimal.NewFromInt(1650)))
	invariantHolds(t, p)
}

func TestApplySellFullPositionCloses(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	p.ApplyBuy(10, decimal.NewFromInt(100))
	require.NoError(t, p.ApplySell(10))
	assert.True(t, p.IsClosed())
	assert.True(t, p.TotalInvested.IsZero())
}

func TestApplySellInsufficientShares(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	p.ApplyBuy(5, decimal.NewFromInt(100))
	err := p.ApplySell(6)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	// 失败的卖出不改变持仓
	assert.EqualValues(t, 5, p.Quantity)
	invariantHolds(t, p)
}

func TestBuySequenceInvariant(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	total := decimal.Zero
	var qty int64
	for _, trade := range []struct {
		qty   int64
		price float64
	}{{3, 101.5}, {7, 99.25}, {11, 103.75}, {1, 98}} {
		price := decimal.NewFromFloat(trade.price)
		p.ApplyBuy(trade.qty, price)
		total = total.Add(price.Mul(decimal.NewFromInt(trade.qty)))
		qty += trade.qty
	}
	assert.EqualValues(t, qty, p.Quantity)
	assert.True(t, p.TotalInvested.Equal(total))
	invariantHolds(t, p)
}

func TestLossPercent(t *testing.T) {
	p := NewPosition("u1", "AAPL", "")
	p.ApplyBuy(10, decimal.NewFromInt(100))

	loss := p.LossPercent(decimal.NewFromInt(88))
	assert.True(t, loss.Equal(decimal.NewFromInt(12)))

	gain := p.LossPercent(decimal.NewFromInt(110))
	assert.True(t, gain.Equal(decimal.NewFromInt(-10)))
}
