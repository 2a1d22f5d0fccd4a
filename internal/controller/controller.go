/*

This file contains the FeeController: the per-pool state machine that quotes a bid fee and an ask
fee after every trade.

Each OnSwap call runs classifier -> spike -> decay gate -> direction policy -> clamp over a private
copy of the FeeState and commits the copy only when every step succeeded, so a failed call leaves
the controller exactly as it was. The controller does no I/O, no logging and draws no randomness.

*/

package controller

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// FeeController owns the fee state of one pool. It is not safe for concurrent use; a pool calls it
// sequentially in trade order.
type FeeController struct {
	params types.ControllerParameters

	spike      SpikeModel
	decay      DecayModel
	sameDecay  *DecayModel
	classifier FlowClassifier
	direction  DirectionPolicy
	clamp      ClampPolicy
	initial    sdkmath.Int

	state       FeeState
	initialized bool
}

// NewFeeController validates the parameters and assembles the policy objects.
func NewFeeController(params types.ControllerParameters) (*FeeController, error) {
	if err := Validate(params); err != nil {
		return nil, err
	}
	p := Normalize(params)

	c := &FeeController{
		params:     p,
		spike:      NewSpikeModel(p.SpikeLinear, p.SpikeQuadratic),
		decay:      NewDecayModel(p.DecayRatio),
		classifier: NewFlowClassifier(p),
		direction:  NewDirectionPolicy(p),
		clamp:      ClampPolicy{Min: wad.Bps(p.MinFeeBps), Max: wad.Bps(p.MaxFeeBps)},
		initial:    wad.Bps(initialFeeBps(p)),
	}
	if !p.SameSideDecay.IsZero() {
		same := NewDecayModel(p.SameSideDecay)
		c.sameDecay = &same
	}
	return c, nil
}

func initialFeeBps(p types.ControllerParameters) uint64 {
	if p.InitialFeeBps != 0 {
		return p.InitialFeeBps
	}
	if p.Direction.Mode == types.DirectionTwoLevel {
		return p.Direction.SameBaseBps
	}
	return p.BaseFeeBps
}

// Name is a short label of the configured variant.
func (c *FeeController) Name() string {
	return fmt.Sprintf("%s/%s", c.params.Direction.Mode, c.params.Classifier.Mode)
}

// Parameters returns the normalized parameters the controller was built from.
func (c *FeeController) Parameters() types.ControllerParameters {
	return c.params
}

// State returns a copy of the current fee state.
func (c *FeeController) State() FeeState {
	return c.state
}

// Initialize creates the fee state for a freshly seeded pool and returns the opening quote.
// It may be called once per controller.
func (c *FeeController) Initialize(reserveX, reserveY sdkmath.Int) (bid, ask sdkmath.Int, err error) {
	if c.initialized {
		return sdkmath.Int{}, sdkmath.Int{}, ErrAlreadyInitialized
	}

	// Reserves must price the pool even when no classifier needs the spot.
	if _, err := wad.Div(reserveY, reserveX); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("initial reserves: %w", err)
	}

	fee := wad.Clamp(c.initial, c.clamp.Min, c.clamp.Max)
	state := FeeState{
		BidFee:             fee,
		AskFee:             fee,
		VolatilityEstimate: sdkmath.ZeroInt(),
		LastSpot:           sdkmath.ZeroInt(),
	}
	state.clearPending()

	if err := c.classifier.Initialize(&state, reserveX, reserveY); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("classifier initialization: %w", err)
	}

	c.state = state
	c.initialized = true
	return state.BidFee, state.AskFee, nil
}

// OnSwap updates the fee state for an executed trade and returns the quote for the next trade.
func (c *FeeController) OnSwap(trade types.TradeEvent) (bid, ask sdkmath.Int, err error) {
	if !c.initialized {
		return sdkmath.Int{}, sdkmath.Int{}, ErrNotInitialized
	}
	if trade.Timestamp < c.state.LastTimestamp {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: %d after %d", ErrTimestampRegression, trade.Timestamp, c.state.LastTimestamp)
	}

	next := c.state

	tradeRatio, err := TradeRatio(trade)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("trade ratio: %w", err)
	}

	signal, err := c.classifier.Classify(&next, trade, tradeRatio)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("classify trade: %w", err)
	}

	applyDecay := next.advanceStep(trade.Timestamp, c.params.DecayGranularity)

	spike, err := c.spike.Spike(tradeRatio)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("spike: %w", err)
	}

	impulse := Impulse{
		Side:       trade.OppositeSide(),
		Spike:      spike,
		TradeRatio: tradeRatio,
		Fire:       signal.Spike,
	}
	if c.params.DelayedSpike {
		impulse = c.swapPending(&next, impulse)
	}

	step := decayStep{apply: applyDecay, opposite: signal.Decay, same: signal.Decay}
	if c.sameDecay != nil {
		step.same = *c.sameDecay
	}

	bid, ask, err = c.direction.Assign(PolicyInput{
		Bid:     next.BidFee,
		Ask:     next.AskFee,
		Impulse: impulse,
		Base:    signal.Base,
		decay:   step,
	})
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("direction policy: %w", err)
	}

	next.BidFee, next.AskFee = c.clamp.Apply(bid, ask)
	c.state = next
	return next.BidFee, next.AskFee, nil
}

// swapPending stores this trade's impulse for the next call and returns the one stored by the
// previous call. With nothing pending the trade only decays.
func (c *FeeController) swapPending(state *FeeState, current Impulse) Impulse {
	apply := Impulse{Side: current.Side, Spike: sdkmath.ZeroInt(), TradeRatio: sdkmath.ZeroInt()}
	if state.PendingSide != types.SideNone {
		apply = Impulse{
			Side:       state.PendingSide,
			Spike:      state.PendingSpike,
			TradeRatio: state.PendingRatio,
			Fire:       true,
		}
	}

	if current.Fire {
		state.PendingSide = current.Side
		state.PendingSpike = current.Spike
		state.PendingRatio = current.TradeRatio
	} else {
		state.clearPending()
	}
	return apply
}
