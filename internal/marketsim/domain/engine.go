package domain

import (
	"math"
	"math/rand"
)

// TradingDaysPerYear 年化参数换算使用的交易日数量
const TradingDaysPerYear = 252.0

const (
	// MinVolatility 波动率下限
	MinVolatility = 0.05
	// MaxVolatility 波动率上限
	MaxVolatility = 0.5
	// MaxMomentum 市场动量的钳制范围 ±15%
	MaxMomentum = 0.15
	// SectorBlendWeight 板块相关性混入动量增量的权重
	SectorBlendWeight = 0.3
)

// GeometricBrownianMotion 几何布朗运动价格过程
// 随机源由调用方注入，测试中使用固定种子保证可复现
type GeometricBrownianMotion struct {
	rng *rand.Rand
}

// NewGBM 创建 GBM 生成器
func NewGBM(seed int64) *GeometricBrownianMotion {
	return &GeometricBrownianMotion{rng: rand.New(rand.NewSource(seed))}
}

// NormFloat64 用 Box-Muller 变换把两个独立均匀变量转换为标准正态变量
func (g *GeometricBrownianMotion) NormFloat64() float64 {
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()
	// u1 为 0 时 log 发散
	for u1 == 0 {
		u1 = g.rng.Float64()
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Next 演化一步: S' = S × exp((μ − σ²/2)Δt + σ√Δt·Z)
// dt 为 tick 长度占 252 个交易日年的比例
func (g *GeometricBrownianMotion) Next(price, drift, volatility, dt float64) float64 {
	return price * GBMFactor(drift, volatility, dt, g.NormFloat64())
}

// GBMFactor 单步价格乘数 exp((μ − σ²/2)Δt + σ√Δt·Z)
func GBMFactor(drift, volatility, dt, z float64) float64 {
	return math.Exp((drift-0.5*volatility*volatility)*dt + volatility*math.Sqrt(dt)*z)
}

// Intn 返回 [0, n) 内的随机整数，供成交量增量使用
func (g *GeometricBrownianMotion) Intn(n int) int {
	return g.rng.Intn(n)
}

// AdjustVolatility 按成交量对数放大波动率并钳制到 [0.05, 0.5]
func AdjustVolatility(base float64, volume int64) float64 {
	adjusted := base
	if volume > 0 {
		adjusted = base * (1 + math.Log1p(float64(volume))/100)
	}
	return ClampFloat(adjusted, MinVolatility, MaxVolatility)
}

// MarketMomentum 计算成交量加权的市场平均漂移，钳制到 ±15%
func MarketMomentum(instruments []*Instrument) float64 {
	var weighted, totalVolume float64
	for _, inst := range instruments {
		v := float64(inst.Volume)
		if v <= 0 {
			v = 1
		}
		weighted += inst.Drift * v
		totalVolume += v
	}
	if totalVolume == 0 {
		return 0
	}
	return ClampFloat(weighted/totalVolume, -MaxMomentum, MaxMomentum)
}

// SectorCorrelation 板块相关性因子，未知板块按 1.0 处理
func SectorCorrelation(sector string) float64 {
	switch sector {
	case "Technology":
		return 1.2
	case "Finance":
		return 1.1
	case "Energy":
		return 0.9
	case "Healthcare":
		return 0.8
	case "Consumer":
		return 0.7
	default:
		return 1.0
	}
}

// ClampFloat 将 v 钳制到 [lo, hi]
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
