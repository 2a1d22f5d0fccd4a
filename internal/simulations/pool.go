package simulations

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// ErrInvalidPool is returned for non-positive or non-finite reserves.
var ErrInvalidPool = errors.New("invalid pool reserves")

// minTradeSize drops dust trades that only add float noise.
const minTradeSize = 1e-12

// FeeStrategy is the boundary between a pool and whatever decides its fees. Fee values are WAD scaled.
type FeeStrategy interface {
	Initialize(reserveX, reserveY sdkmath.Int) (bid, ask sdkmath.Int, err error)
	OnSwap(trade types.TradeEvent) (bid, ask sdkmath.Int, err error)
	Name() string
}

// FlowKind tags a trade for edge and volume accounting.
type FlowKind int

const (
	FlowArbitrage FlowKind = iota
	FlowRetail
)

// Pool is a constant-product pool whose fees are set by a FeeStrategy after every trade.
// Fees are charged on the input amount and stay in the reserves.
type Pool struct {
	name     string
	strategy FeeStrategy

	x, y   float64
	bidFee float64 // charged when the pool buys X
	askFee float64 // charged when the pool sells X

	metrics    types.PoolMetrics
	bidFeeSum  float64
	askFeeSum  float64
	feeSamples int
}

// NewPool seeds the reserves and asks the strategy for the opening quote.
func NewPool(name string, strategy FeeStrategy, reserveX, reserveY float64) (*Pool, error) {
	if !(reserveX > 0) || !(reserveY > 0) || math.IsInf(reserveX, 0) || math.IsInf(reserveY, 0) {
		return nil, fmt.Errorf("%w: x=%f y=%f", ErrInvalidPool, reserveX, reserveY)
	}
	p := &Pool{name: name, strategy: strategy, x: reserveX, y: reserveY}

	rx, ry, err := p.wadReserves()
	if err != nil {
		return nil, err
	}
	bid, ask, err := strategy.Initialize(rx, ry)
	if err != nil {
		return nil, fmt.Errorf("pool %s: initialize strategy %s: %w", name, strategy.Name(), err)
	}
	if err := p.setFees(bid, ask); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the pool label.
func (p *Pool) Name() string { return p.name }

// Reserves returns the current reserves.
func (p *Pool) Reserves() (x, y float64) { return p.x, p.y }

// Fees returns the current bid and ask fees as fractions.
func (p *Pool) Fees() (bid, ask float64) { return p.bidFee, p.askFee }

// SpotPrice is y/x.
func (p *Pool) SpotPrice() float64 { return p.y / p.x }

// Metrics returns the accumulated metrics with fee averages filled in.
func (p *Pool) Metrics() types.PoolMetrics {
	m := p.metrics
	if p.feeSamples > 0 {
		m.AvgBidFeeBps = p.bidFeeSum / float64(p.feeSamples) * 1e4
		m.AvgAskFeeBps = p.askFeeSum / float64(p.feeSamples) * 1e4
	}
	return m
}

// sampleFees records the quote in force at the end of a step.
func (p *Pool) sampleFees() {
	p.bidFeeSum += p.bidFee
	p.askFeeSum += p.askFee
	p.feeSamples++
}

// QuoteSellX is the Y a trader receives for selling dx of X.
func (p *Pool) QuoteSellX(dx float64) float64 {
	if dx <= 0 {
		return 0
	}
	k := p.x * p.y
	return p.y - k/(p.x+(1-p.bidFee)*dx)
}

// QuoteBuyX is the X a trader receives for paying dy of Y.
func (p *Pool) QuoteBuyX(dy float64) float64 {
	if dy <= 0 {
		return 0
	}
	k := p.x * p.y
	return p.x - k/(p.y+(1-p.askFee)*dy)
}

// SellX executes a trader selling dx of X to the pool (the pool buys X).
func (p *Pool) SellX(dx, fairPrice float64, timestamp uint64, kind FlowKind) (float64, error) {
	if dx < minTradeSize {
		return 0, nil
	}
	dy := p.QuoteSellX(dx)
	p.x += dx
	p.y -= dy

	p.record(kind, dx*fairPrice-dy, dy)
	return dy, p.notify(dx, dy, true, timestamp)
}

// BuyX executes a trader paying dy of Y for X (the pool sells X).
func (p *Pool) BuyX(dy, fairPrice float64, timestamp uint64, kind FlowKind) (float64, error) {
	if dy < minTradeSize {
		return 0, nil
	}
	dx := p.QuoteBuyX(dy)
	p.x -= dx
	p.y += dy

	p.record(kind, dy-dx*fairPrice, dy)
	return dx, p.notify(dx, dy, false, timestamp)
}

func (p *Pool) record(kind FlowKind, edge, volumeY float64) {
	p.metrics.Edge += edge
	switch kind {
	case FlowArbitrage:
		p.metrics.ArbEdge += edge
		p.metrics.ArbVolumeY += volumeY
		p.metrics.ArbTrades++
	default:
		p.metrics.RetailEdge += edge
		p.metrics.RetailVolumeY += volumeY
		p.metrics.RetailTrades++
	}
}

// notify hands the executed trade to the strategy and installs the quote it returns.
func (p *Pool) notify(dx, dy float64, isBuy bool, timestamp uint64) error {
	amountX, err := wad.FromFloat(dx)
	if err != nil {
		return fmt.Errorf("pool %s: amount x: %w", p.name, err)
	}
	amountY, err := wad.FromFloat(dy)
	if err != nil {
		return fmt.Errorf("pool %s: amount y: %w", p.name, err)
	}
	rx, ry, err := p.wadReserves()
	if err != nil {
		return err
	}

	bid, ask, err := p.strategy.OnSwap(types.TradeEvent{
		AmountX:   amountX,
		AmountY:   amountY,
		ReserveX:  rx,
		ReserveY:  ry,
		IsBuy:     isBuy,
		Timestamp: timestamp,
	})
	if err != nil {
		return fmt.Errorf("pool %s: strategy %s: %w", p.name, p.strategy.Name(), err)
	}
	return p.setFees(bid, ask)
}

func (p *Pool) wadReserves() (sdkmath.Int, sdkmath.Int, error) {
	rx, err := wad.FromFloat(p.x)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("pool %s: reserve x: %w", p.name, err)
	}
	ry, err := wad.FromFloat(p.y)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("pool %s: reserve y: %w", p.name, err)
	}
	return rx, ry, nil
}

func (p *Pool) setFees(bid, ask sdkmath.Int) error {
	b, err := wad.ToFloat(bid)
	if err != nil {
		return fmt.Errorf("pool %s: bid fee: %w", p.name, err)
	}
	a, err := wad.ToFloat(ask)
	if err != nil {
		return fmt.Errorf("pool %s: ask fee: %w", p.name, err)
	}
	if b >= 1 || a >= 1 {
		return fmt.Errorf("%w: pool %s quoted a fee of 100%% or more", ErrInvalidPool, p.name)
	}
	p.bidFee, p.askFee = b, a
	return nil
}
