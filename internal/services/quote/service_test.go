package quote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

// --- Mocks ---

type mockProvider struct {
	mu       sync.Mutex
	prices   map[string]float64
	calls    map[string]int
	delay    time.Duration
	panicOn  string
	inFlight int32
	maxSeen  int32
}

func (m *mockProvider) GetPrice(ctx context.Context, instrument string) (*models.PriceQuote, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}

	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[instrument]++
	m.mu.Unlock()

	if instrument == m.panicOn {
		panic("provider exploded")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p, ok := m.prices[instrument]
	if !ok {
		return nil, ErrPriceUnavailable
	}
	return &models.PriceQuote{Price: decimal.NewFromFloat(p), Source: "mock"}, nil
}

func TestFetchPrices_ResolvesEachInstrumentOnce(t *testing.T) {
	provider := &mockProvider{prices: map[string]float64{"A": 10.5, "B": 20, "C": 0}}
	svc := NewService(common.NewSilentLogger(), WithWorkers(2))

	prices := svc.FetchPrices(context.Background(), provider, []string{"A", "B", "A", " ", "C", "D"})

	require.Len(t, prices, 2)
	assert.Equal(t, "10.5", prices["A"].Price.String())
	assert.Equal(t, "A", prices["A"].Instrument)
	assert.Equal(t, "mock", prices["B"].Source)
	assert.NotContains(t, prices, "C", "zero price is unknown")
	assert.NotContains(t, prices, "D")
	assert.Equal(t, 1, provider.calls["A"])
	assert.Equal(t, 4, len(provider.calls))
}

func TestFetchPrices_BoundedConcurrency(t *testing.T) {
	prices := map[string]float64{}
	var ids []string
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		prices[id] = 1
		ids = append(ids, id)
	}
	provider := &mockProvider{prices: prices, delay: 20 * time.Millisecond}
	svc := NewService(common.NewSilentLogger(), WithWorkers(3))

	got := svc.FetchPrices(context.Background(), provider, ids)

	assert.Len(t, got, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&provider.maxSeen), int32(3))
}

func TestFetchPrices_PerLookupTimeout(t *testing.T) {
	provider := &mockProvider{prices: map[string]float64{"SLOW": 5}, delay: time.Second}
	svc := NewService(common.NewSilentLogger(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	prices := svc.FetchPrices(context.Background(), provider, []string{"SLOW"})

	assert.Empty(t, prices)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchPrices_RecoversFromPanic(t *testing.T) {
	provider := &mockProvider{prices: map[string]float64{"OK": 3, "BOOM": 4}, panicOn: "BOOM"}
	svc := NewService(common.NewSilentLogger())

	prices := svc.FetchPrices(context.Background(), provider, []string{"BOOM", "OK"})

	assert.Len(t, prices, 1)
	assert.Contains(t, prices, "OK")
}

func TestFetchPrices_NilProviderAndEmptyInput(t *testing.T) {
	svc := NewService(nil)

	assert.Empty(t, svc.FetchPrices(context.Background(), nil, []string{"A"}))
	assert.Empty(t, svc.FetchPrices(context.Background(), &mockProvider{}, nil))
}

func TestFetchPrices_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &mockProvider{prices: map[string]float64{"A": 1}, delay: time.Second}

	prices := NewService(nil).FetchPrices(ctx, provider, []string{"A", "B"})

	assert.Empty(t, prices)
}

func TestFetchPrices_FreshMapPerCall(t *testing.T) {
	provider := &mockProvider{prices: map[string]float64{"A": 1}}
	svc := NewService(nil)

	first := svc.FetchPrices(context.Background(), provider, []string{"A"})
	provider.prices["A"] = 2
	second := svc.FetchPrices(context.Background(), provider, []string{"A"})

	assert.Equal(t, "1", first["A"].Price.String())
	assert.Equal(t, "2", second["A"].Price.String())
	assert.Equal(t, 2, provider.calls["A"])
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[string]float64{"inf109k01z48": 101.25, "ZERO": 0})

	assert.Equal(t, 1, p.Len())

	q, err := p.GetPrice(context.Background(), "INF109K01Z48")
	require.NoError(t, err)
	assert.Equal(t, "101.25", q.Price.String())
	assert.Equal(t, "static", q.Source)

	_, err = p.GetPrice(context.Background(), "ZERO")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestChainProvider_FirstUsablePriceWins(t *testing.T) {
	static := NewStaticProvider(map[string]float64{"A": 9})
	remote := &mockProvider{prices: map[string]float64{"A": 1, "B": 2}}
	chain := NewChainProvider(static, nil, remote)

	q, err := chain.GetPrice(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "static", q.Source)
	assert.Zero(t, remote.calls["A"])

	q, err = chain.GetPrice(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "mock", q.Source)
}

func TestChainProvider_JoinsErrors(t *testing.T) {
	remoteErr := errors.New("EODHD API error: boom")
	chain := NewChainProvider(NewStaticProvider(nil), errProvider{remoteErr})

	_, err := chain.GetPrice(context.Background(), "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.ErrorIs(t, err, remoteErr)

	_, err = NewChainProvider().GetPrice(context.Background(), "X")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

type errProvider struct{ err error }

func (e errProvider) GetPrice(_ context.Context, _ string) (*models.PriceQuote, error) {
	return nil, e.err
}
