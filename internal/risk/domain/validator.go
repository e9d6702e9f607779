package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide 交易方向
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeIntent 待校验的交易意图
type TradeIntent struct {
	Symbol   string
	Sector   string
	Side     TradeSide
	Quantity int64
	Price    decimal.Decimal
}

// Notional 交易名义金额 quantity × price
func (t TradeIntent) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// HolderSnapshot 校验所需的持有人视图
// 日内基线的自然日归位由应用层在构建快照前完成
type HolderSnapshot struct {
	// Balance 当前可用余额
	Balance decimal.Decimal
	// DailyStartBalance 当日起始总值基线
	DailyStartBalance decimal.Decimal
	// StartingBalance 开户初始资金
	StartingBalance decimal.Decimal
	// PortfolioValue 按现价计的全部持仓市值
	PortfolioValue decimal.Decimal
	// TodayBuyNotional 当日已成交买入名义金额合计
	TodayBuyNotional decimal.Decimal
	// SectorValue 各板块当前持仓市值
	SectorValue map[string]decimal.Decimal
}

// TotalValue 余额加持仓市值
func (s HolderSnapshot) TotalValue() decimal.Decimal {
	return s.Balance.Add(s.PortfolioValue)
}

// Decision 校验结论；拒绝时 Reason 为面向用户的原因说明
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func accept() Decision {
	return Decision{Accepted: true}
}

func reject(format string, args ...any) Decision {
	return Decision{Accepted: false, Reason: fmt.Sprintf(format, args...)}
}

var hundred = decimal.NewFromInt(100)

// Validate 规则校验管道
// 按固定顺序逐条检查并在首个失败处短路，返回对应拒绝原因；
// rules 为 nil 时无条件放行
func Validate(intent TradeIntent, snap HolderSnapshot, breaker *CircuitBreakerState, rules *RuleSet, now time.Time) Decision {
	if rules == nil {
		return accept()
	}

	// 1. 当日亏损
	if snap.DailyStartBalance.IsPositive() {
		lossPct := snap.DailyStartBalance.Sub(snap.TotalValue()).Div(snap.DailyStartBalance).Mul(hundred)
		if lossPct.GreaterThan(rules.MaxDailyLossPercent) {
			return reject("daily loss %s%% exceeds limit %s%%", lossPct.Round(2), rules.MaxDailyLossPercent)
		}
	}

	// 2. 累计亏损
	if snap.StartingBalance.IsPositive() {
		lossPct := snap.StartingBalance.Sub(snap.TotalValue()).Div(snap.StartingBalance).Mul(hundred)
		if lossPct.GreaterThan(rules.MaxPortfolioLossPercent) {
			return reject("portfolio loss %s%% exceeds limit %s%%", lossPct.Round(2), rules.MaxPortfolioLossPercent)
		}
	}

	notional := intent.Notional()

	// 3. 最小成交金额
	if notional.LessThan(rules.MinTradeAmount) {
		return reject("trade amount %s below minimum %s", notional, rules.MinTradeAmount)
	}

	// 4. 单笔上限
	if notional.GreaterThan(rules.PerTradeLimit) {
		return reject("trade amount %s exceeds per-trade limit %s", notional, rules.PerTradeLimit)
	}

	// 5. 当日累计买入上限，仅买入方向
	if intent.Side == TradeSideBuy {
		projected := snap.TodayBuyNotional.Add(notional)
		if projected.GreaterThan(rules.DailyTradeLimit) {
			return reject("daily buy total %s exceeds limit %s", projected, rules.DailyTradeLimit)
		}
	}

	// 6. 板块敞口，仅买入方向
	if intent.Side == TradeSideBuy {
		if capPct, ok := rules.SectorCap(intent.Sector); ok {
			sectorValue := decimal.Zero
			if v, exists := snap.SectorValue[intent.Sector]; exists {
				sectorValue = v
			}
			projectedSector := sectorValue.Add(notional)
			projectedTotal := snap.PortfolioValue.Add(notional)
			if projectedTotal.IsPositive() {
				exposure := projectedSector.Div(projectedTotal).Mul(hundred)
				if exposure.GreaterThan(capPct) {
					return reject("sector %s exposure %s%% exceeds cap %s%%", intent.Sector, exposure.Round(2), capPct)
				}
			}
		}
	}

	// 7. 熔断
	if breaker.ActiveAt(now) {
		return reject("trading in %s is suspended by circuit breaker until %s",
			intent.Symbol, breaker.ResumesAt.Format("15:04:05"))
	}

	// 8. 交易时段
	if !withinMarketHours(rules, now) {
		return reject("market is closed, trading hours %s-%s", rules.MarketOpenTime, rules.MarketCloseTime)
	}

	return accept()
}

// withinMarketHours 判断 now 的本地时刻是否落在 [open, close] 区间内
// 配置解析失败时视为不设交易时段限制
func withinMarketHours(rules *RuleSet, now time.Time) bool {
	open, err1 := time.Parse("15:04", rules.MarketOpenTime)
	closeT, err2 := time.Parse("15:04", rules.MarketCloseTime)
	if err1 != nil || err2 != nil {
		return true
	}
	minutes := now.Hour()*60 + now.Minute()
	openMin := open.Hour()*60 + open.Minute()
	closeMin := closeT.Hour()*60 + closeT.Minute()
	return minutes >= openMin && minutes <= closeMin
}
