package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/papertrading/internal/marketsim/domain"
)

type fakeInstrumentRepo struct {
	mu          sync.Mutex
	instruments map[string]*domain.Instrument
	failSymbols map[string]bool
}

func newFakeInstrumentRepo(instruments ...*domain.Instrument) *fakeInstrumentRepo {
	r := &fakeInstrumentRepo{
		instruments: make(map[string]*domain.Instrument),
		failSymbols: make(map[string]bool),
	}
	for _, inst := range instruments {
		r.instruments[inst.Symbol] = inst
	}
	return r
}

func (r *fakeInstrumentRepo) Save(_ context.Context, instrument *domain.Instrument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSymbols[instrument.Symbol] {
		return errors.New("storage unavailable")
	}
	r.instruments[instrument.Symbol] = instrument
	return nil
}

func (r *fakeInstrumentRepo) Get(_ context.Context, symbol string) (*domain.Instrument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instruments[symbol], nil
}

func (r *fakeInstrumentRepo) ListActive(_ context.Context) ([]*domain.Instrument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Instrument, 0, len(r.instruments))
	for _, inst := range r.instruments {
		if inst.Status == domain.InstrumentStatusActive {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (r *fakeInstrumentRepo) List(_ context.Context, limit, offset int) ([]*domain.Instrument, int64, error) {
	all, _ := r.ListActive(context.Background())
	return all, int64(len(all)), nil
}

type fakeHistoryRepo struct {
	mu     sync.Mutex
	points map[string][]*domain.PricePoint
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{points: make(map[string][]*domain.PricePoint)}
}

func (r *fakeHistoryRepo) Append(_ context.Context, point *domain.PricePoint, cap int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[point.Symbol] = append(r.points[point.Symbol], point)
	if cap > 0 && len(r.points[point.Symbol]) > cap {
		r.points[point.Symbol] = r.points[point.Symbol][len(r.points[point.Symbol])-cap:]
	}
	return nil
}

func (r *fakeHistoryRepo) Latest(_ context.Context, symbol string) (*domain.PricePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pts := r.points[symbol]
	if len(pts) == 0 {
		return nil, nil
	}
	return pts[len(pts)-1], nil
}

func (r *fakeHistoryRepo) ListAscending(_ context.Context, symbol string, limit int) ([]*domain.PricePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pts := r.points[symbol]
	if len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	return pts, nil
}

type recordingObserver struct {
	mu    sync.Mutex
	ticks []string
}

func (o *recordingObserver) ObserveTick(_ context.Context, symbol string, _, _ decimal.Decimal) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks = append(o.ticks, symbol)
	return nil
}

func newTestInstrument(symbol string, price float64) *domain.Instrument {
	return &domain.Instrument{
		Symbol:        symbol,
		Name:          symbol,
		Sector:        "Technology",
		CurrentPrice:  decimal.NewFromFloat(price),
		PreviousClose: decimal.NewFromFloat(price),
		BasePrice:     decimal.NewFromFloat(price),
		Volatility:    0.3,
		Drift:         0.05,
		Beta:          1.0,
		Volume:        1000,
		Status:        domain.InstrumentStatusActive,
	}
}

func newTestSimulator(repo *fakeInstrumentRepo, history *fakeHistoryRepo, observer domain.TickObserver) *Simulator {
	return NewSimulator(repo, history, nil, observer, SimulatorConfig{
		TickInterval:  time.Second,
		MaxConcurrent: 4,
		HistoryCap:    10,
		Seed:          42,
	})
}

func TestSimulateTickStaysWithinBounds(t *testing.T) {
	inst := newTestInstrument("AAPL", 100)
	// 极端参数也不能把价格推出 [0.3, 3.0] × base
	inst.Volatility = 0.5
	inst.Drift = 3.0
	repo := newFakeInstrumentRepo(inst)
	sim := newTestSimulator(repo, newFakeHistoryRepo(), nil)

	floor := decimal.NewFromFloat(30)
	ceil := decimal.NewFromFloat(300)
	for i := 0; i < 500; i++ {
		results, err := sim.SimulateTick(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)
		price := results[0].NewPrice
		assert.True(t, price.GreaterThan(decimal.Zero), "price must stay positive")
		assert.True(t, price.GreaterThanOrEqual(floor), "price %s below floor", price)
		assert.True(t, price.LessThanOrEqual(ceil), "price %s above ceil", price)
	}
}

func TestSimulateTickUpdatesInstrumentState(t *testing.T) {
	inst := newTestInstrument("MSFT", 200)
	repo := newFakeInstrumentRepo(inst)
	observer := &recordingObserver{}
	sim := newTestSimulator(repo, newFakeHistoryRepo(), observer)

	before := inst.CurrentPrice
	volumeBefore := inst.Volume
	results, err := sim.SimulateTick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	updated, _ := repo.Get(context.Background(), "MSFT")
	assert.True(t, updated.PreviousClose.Equal(before))
	assert.True(t, updated.CurrentPrice.Equal(results[0].NewPrice))
	assert.Greater(t, updated.Volume, volumeBefore)
	assert.Equal(t, []string{"MSFT"}, observer.ticks)
	// 两位小数
	assert.True(t, results[0].NewPrice.Exponent() >= -2)
}

func TestSimulateTickSkipsFailingInstrument(t *testing.T) {
	good := newTestInstrument("GOOD", 50)
	bad := newTestInstrument("BAD", 50)
	repo := newFakeInstrumentRepo(good, bad)
	repo.failSymbols["BAD"] = true
	sim := newTestSimulator(repo, newFakeHistoryRepo(), nil)

	results, err := sim.SimulateTick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1, "failing instrument is skipped, batch continues")
	assert.Equal(t, "GOOD", results[0].Symbol)
}

func TestHistoryRespectsMinimumMoveAndCap(t *testing.T) {
	inst := newTestInstrument("TSLA", 100)
	repo := newFakeInstrumentRepo(inst)
	history := newFakeHistoryRepo()
	sim := newTestSimulator(repo, history, nil)

	for i := 0; i < 50; i++ {
		_, err := sim.SimulateTick(context.Background())
		require.NoError(t, err)
	}

	points, err := history.ListAscending(context.Background(), "TSLA", 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(points), 10, "history capped at configured size")
	// 相邻历史点之间的变动超过 0.1%
	for i := 1; i < len(points); i++ {
		assert.False(t, points[i].Price.Equal(points[i-1].Price))
	}
}

func TestShouldRecordHistoryThreshold(t *testing.T) {
	last := decimal.NewFromInt(100)
	assert.False(t, domain.ShouldRecordHistory(last, decimal.NewFromFloat(100.05)))
	assert.True(t, domain.ShouldRecordHistory(last, decimal.NewFromFloat(100.2)))
	assert.True(t, domain.ShouldRecordHistory(decimal.Zero, last))
}
