package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// Signal is what the classifier tells the rest of the pipeline about one trade.
type Signal struct {
	// Spike is false when the trade looks uninformed and should not move the opposite side.
	Spike bool
	// Base is the base fee in force for this trade.
	Base sdkmath.Int
	// Decay is the decay model in force for this trade.
	Decay DecayModel
}

// FlowClassifier estimates whether flow is informed, or what regime the market is in, and
// adjusts the base fee or decay accordingly. Classifier state lives in FeeState.
type FlowClassifier interface {
	Initialize(state *FeeState, reserveX, reserveY sdkmath.Int) error
	Classify(state *FeeState, trade types.TradeEvent, tradeRatio sdkmath.Int) (Signal, error)
}

// NewFlowClassifier returns the classifier selected by validated parameters.
func NewFlowClassifier(p types.ControllerParameters) FlowClassifier {
	base := wad.Bps(p.BaseFeeBps)
	decay := NewDecayModel(p.DecayRatio)
	c := p.Classifier

	switch c.Mode {
	case types.ClassifierThreshold:
		return &thresholdClassifier{base: base, decay: decay, threshold: wad.Bps(c.ThresholdBps)}
	case types.ClassifierRegime:
		return &regimeClassifier{
			base:          base,
			threshold:     wad.Bps(c.ThresholdBps),
			increment:     c.LargeIncrement,
			decrement:     c.SmallDecrement,
			ceiling:       c.CounterCap,
			volatileAbove: c.VolatileAbove,
			volatile:      NewDecayModel(c.VolatileDecay),
			calm:          NewDecayModel(c.CalmDecay),
		}
	case types.ClassifierVolatilityEMA:
		return &volatilityClassifier{
			base:      base,
			decay:     decay,
			keepNum:   sdkmath.NewIntFromUint64(c.EmaWeight.Den - c.EmaWeight.Num),
			weightNum: sdkmath.NewIntFromUint64(c.EmaWeight.Num),
			weightDen: sdkmath.NewIntFromUint64(c.EmaWeight.Den),
			nominal:   wad.Bps(c.NominalVolBps),
			minBase:   wad.Bps(c.MinBaseBps),
			maxBase:   wad.Bps(c.MaxBaseBps),
		}
	default:
		return &noopClassifier{base: base, decay: decay}
	}
}

// noopClassifier treats every trade as informed.
type noopClassifier struct {
	base  sdkmath.Int
	decay DecayModel
}

func (n *noopClassifier) Initialize(*FeeState, sdkmath.Int, sdkmath.Int) error { return nil }

func (n *noopClassifier) Classify(*FeeState, types.TradeEvent, sdkmath.Int) (Signal, error) {
	return Signal{Spike: true, Base: n.base, Decay: n.decay}, nil
}

// thresholdClassifier treats trades above a size threshold as informed and lets smaller ones decay.
type thresholdClassifier struct {
	base      sdkmath.Int
	decay     DecayModel
	threshold sdkmath.Int
}

func (t *thresholdClassifier) Initialize(*FeeState, sdkmath.Int, sdkmath.Int) error { return nil }

func (t *thresholdClassifier) Classify(_ *FeeState, _ types.TradeEvent, tradeRatio sdkmath.Int) (Signal, error) {
	return Signal{Spike: tradeRatio.GT(t.threshold), Base: t.base, Decay: t.decay}, nil
}

// regimeClassifier counts large trades. A high count means a volatile market where spikes are
// held longer; a low count means a calm market where they fade quickly.
type regimeClassifier struct {
	base          sdkmath.Int
	threshold     sdkmath.Int
	increment     uint64
	decrement     uint64
	ceiling       uint64
	volatileAbove uint64
	volatile      DecayModel
	calm          DecayModel
}

func (r *regimeClassifier) Initialize(state *FeeState, _, _ sdkmath.Int) error {
	state.RegimeCounter = 0
	return nil
}

func (r *regimeClassifier) Classify(state *FeeState, _ types.TradeEvent, tradeRatio sdkmath.Int) (Signal, error) {
	if tradeRatio.GT(r.threshold) {
		state.RegimeCounter += r.increment
		if state.RegimeCounter > r.ceiling {
			state.RegimeCounter = r.ceiling
		}
	} else if state.RegimeCounter > r.decrement {
		state.RegimeCounter -= r.decrement
	} else {
		state.RegimeCounter = 0
	}

	decay := r.calm
	if state.RegimeCounter > r.volatileAbove {
		decay = r.volatile
	}
	return Signal{Spike: true, Base: r.base, Decay: decay}, nil
}

// volatilityClassifier keeps an EMA of absolute spot returns and scales the base fee by
// volatility/nominal inside [minBase, maxBase].
type volatilityClassifier struct {
	base      sdkmath.Int
	decay     DecayModel
	keepNum   sdkmath.Int
	weightNum sdkmath.Int
	weightDen sdkmath.Int
	nominal   sdkmath.Int
	minBase   sdkmath.Int
	maxBase   sdkmath.Int
}

func (v *volatilityClassifier) Initialize(state *FeeState, reserveX, reserveY sdkmath.Int) error {
	spot, err := wad.Div(reserveY, reserveX)
	if err != nil {
		return err
	}
	state.LastSpot = spot
	state.VolatilityEstimate = v.nominal
	return nil
}

func (v *volatilityClassifier) Classify(state *FeeState, trade types.TradeEvent, _ sdkmath.Int) (Signal, error) {
	spot, err := wad.Div(trade.ReserveY, trade.ReserveX)
	if err != nil {
		return Signal{}, err
	}
	move, err := wad.AbsDiff(spot, state.LastSpot)
	if err != nil {
		return Signal{}, err
	}
	ret, err := wad.Div(move, state.LastSpot)
	if err != nil {
		return Signal{}, err
	}

	kept, err := wad.MulDiv(state.VolatilityEstimate, v.keepNum, v.weightDen)
	if err != nil {
		return Signal{}, err
	}
	added, err := wad.MulDiv(ret, v.weightNum, v.weightDen)
	if err != nil {
		return Signal{}, err
	}
	vol, err := wad.Add(kept, added)
	if err != nil {
		return Signal{}, err
	}

	scale, err := wad.Div(vol, v.nominal)
	if err != nil {
		return Signal{}, err
	}
	scaled, err := wad.Mul(v.base, scale)
	if err != nil {
		return Signal{}, err
	}

	state.VolatilityEstimate = vol
	state.LastSpot = spot
	return Signal{Spike: true, Base: wad.Clamp(scaled, v.minBase, v.maxBase), Decay: v.decay}, nil
}
