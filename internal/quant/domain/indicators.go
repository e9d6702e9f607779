// Package domain 技术指标计算的领域逻辑
package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultRSIPeriod RSI 默认周期
const DefaultRSIPeriod = 14

// DefaultSMAPeriod SMA 默认周期
const DefaultSMAPeriod = 20

// RSINeutral 数据不足时返回的中性值
var RSINeutral = decimal.NewFromInt(50)

// SMASeries 计算简单移动平均序列
// prices 按时间升序排列（最新的在最后）
// 用滑动窗口维护累计和，整体复杂度 O(n) 而非 O(n·period)
// 数据少于 period 时返回空序列
func SMASeries(prices []decimal.Decimal, period int) []decimal.Decimal {
	if period <= 0 || len(prices) < period {
		return nil
	}

	out := make([]decimal.Decimal, 0, len(prices)-period+1)
	window := decimal.Zero
	for i, p := range prices {
		window = window.Add(p)
		if i >= period {
			window = window.Sub(prices[i-period])
		}
		if i >= period-1 {
			out = append(out, window.Div(decimal.NewFromInt(int64(period))))
		}
	}
	return out
}

// SMA 返回最新一个窗口的简单移动平均，数据不足时返回零值和 false
func SMA(prices []decimal.Decimal, period int) (decimal.Decimal, bool) {
	series := SMASeries(prices, period)
	if len(series) == 0 {
		return decimal.Zero, false
	}
	return series[len(series)-1], true
}

// RSI 计算相对强弱指数，Wilder 平滑法
// 初始平均涨跌幅取前 period 个差值的均值，之后按
// avg = (avg×(period−1) + current)/period 递推
// 数据不足（len ≤ period）返回中性值 50；平均跌幅为零返回 100
// 结果保留两位小数
func RSI(prices []decimal.Decimal, period int) decimal.Decimal {
	if period <= 0 || len(prices) < period+1 {
		return RSINeutral
	}

	periodDec := decimal.NewFromInt(int64(period))
	gains := decimal.Zero
	losses := decimal.Zero
	for i := 1; i <= period; i++ {
		change := prices[i].Sub(prices[i-1])
		if change.GreaterThan(decimal.Zero) {
			gains = gains.Add(change)
		} else {
			losses = losses.Add(change.Abs())
		}
	}

	avgGain := gains.Div(periodDec)
	avgLoss := losses.Div(periodDec)

	smoothing := decimal.NewFromInt(int64(period - 1))
	for i := period + 1; i < len(prices); i++ {
		change := prices[i].Sub(prices[i-1])
		currentGain := decimal.Zero
		currentLoss := decimal.Zero
		if change.GreaterThan(decimal.Zero) {
			currentGain = change
		} else {
			currentLoss = change.Abs()
		}
		avgGain = avgGain.Mul(smoothing).Add(currentGain).Div(periodDec)
		avgLoss = avgLoss.Mul(smoothing).Add(currentLoss).Div(periodDec)
	}

	if avgLoss.IsZero() {
		return decimal.NewFromInt(100)
	}

	rs := avgGain.Div(avgLoss)
	hundred := decimal.NewFromInt(100)
	rsi := hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
	return rsi.Round(2)
}
