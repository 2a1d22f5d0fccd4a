package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// Impulse is the reaction a policy is asked to apply on this call.
type Impulse struct {
	// Side receives the fresh fee. It is always the opposite side of the trade the impulse came from.
	Side types.Side
	// Spike is the increment over the base fee.
	Spike sdkmath.Int
	// TradeRatio of the originating trade, used by size gating.
	TradeRatio sdkmath.Int
	// Fire is false when only decay should happen.
	Fire bool
}

// PolicyInput carries the current fees and everything a DirectionPolicy needs to assign new ones.
type PolicyInput struct {
	Bid     sdkmath.Int
	Ask     sdkmath.Int
	Impulse Impulse
	Base    sdkmath.Int
	decay   decayStep
}

func (in PolicyInput) roles() (opposite, same sdkmath.Int) {
	if in.Impulse.Side == types.SideBid {
		return in.Bid, in.Ask
	}
	return in.Ask, in.Bid
}

func (in PolicyInput) assign(opposite, same sdkmath.Int) (bid, ask sdkmath.Int) {
	if in.Impulse.Side == types.SideBid {
		return opposite, same
	}
	return same, opposite
}

// DirectionPolicy decides which side gets the fresh fee and which side decays.
type DirectionPolicy interface {
	Assign(in PolicyInput) (bid, ask sdkmath.Int, err error)
}

// NewDirectionPolicy returns the policy selected by validated parameters.
func NewDirectionPolicy(p types.ControllerParameters) DirectionPolicy {
	d := p.Direction
	switch d.Mode {
	case types.DirectionSymmetric:
		return symmetricPolicy{}
	case types.DirectionHalfContrarian, types.DirectionProportionalSame:
		return proportionalSamePolicy{
			num: sdkmath.NewIntFromUint64(d.SameFraction.Num),
			den: sdkmath.NewIntFromUint64(d.SameFraction.Den),
		}
	case types.DirectionTwoLevel:
		return twoLevelPolicy{sameBase: wad.Bps(d.SameBaseBps), oppositeBase: wad.Bps(d.OppositeBaseBps)}
	case types.DirectionCapped:
		return cappedPolicy{limit: wad.Bps(d.OppositeCapBps)}
	case types.DirectionSizeGated:
		return sizeGatedPolicy{threshold: wad.Bps(d.SizeThresholdBps)}
	default:
		return contrarianPolicy{}
	}
}

// contrarianPolicy: opposite = max(fresh, decayed opposite), same = decayed same.
type contrarianPolicy struct{}

func (contrarianPolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	opposite, same := in.roles()

	opposite, err := in.decay.opp(opposite, in.Base)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	same, err = in.decay.sameSide(same, in.Base)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	if in.Impulse.Fire {
		fresh, err := wad.Add(in.Base, in.Impulse.Spike)
		if err != nil {
			return sdkmath.Int{}, sdkmath.Int{}, err
		}
		opposite = wad.Max(fresh, opposite)
	}

	bid, ask := in.assign(opposite, same)
	return bid, ask, nil
}

// symmetricPolicy keeps one scalar fee quoted on both sides.
type symmetricPolicy struct{}

func (symmetricPolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	fee, err := in.decay.opp(wad.Max(in.Bid, in.Ask), in.Base)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if in.Impulse.Fire {
		fresh, err := wad.Add(in.Base, in.Impulse.Spike)
		if err != nil {
			return sdkmath.Int{}, sdkmath.Int{}, err
		}
		fee = wad.Max(fresh, fee)
	}
	return fee, fee, nil
}

// twoLevelPolicy gives each side its own floor. The opposite spike starts from the opposite floor.
type twoLevelPolicy struct {
	sameBase     sdkmath.Int
	oppositeBase sdkmath.Int
}

func (t twoLevelPolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	opposite, same := in.roles()

	opposite, err := in.decay.opp(opposite, t.oppositeBase)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	// Without a decay tick the opposite floor still has to hold after the roles swap.
	opposite = wad.Max(opposite, t.oppositeBase)

	same, err = in.decay.sameSide(same, t.sameBase)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	if in.Impulse.Fire {
		fresh, err := wad.Add(t.oppositeBase, in.Impulse.Spike)
		if err != nil {
			return sdkmath.Int{}, sdkmath.Int{}, err
		}
		opposite = wad.Max(fresh, opposite)
	}

	bid, ask := in.assign(opposite, same)
	return bid, ask, nil
}

// proportionalSamePolicy is contrarian, but the same side also receives a damped copy of the spike.
type proportionalSamePolicy struct {
	num, den sdkmath.Int
}

func (p proportionalSamePolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	bid, ask, err := contrarianPolicy{}.Assign(in)
	if err != nil || !in.Impulse.Fire {
		return bid, ask, err
	}

	damped, err := wad.MulDiv(in.Impulse.Spike, p.num, p.den)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	sameFresh, err := wad.Add(in.Base, damped)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	if in.Impulse.Side == types.SideBid {
		ask = wad.Max(sameFresh, ask)
	} else {
		bid = wad.Max(sameFresh, bid)
	}
	return bid, ask, nil
}

// cappedPolicy is contrarian with a ceiling on the opposite side.
type cappedPolicy struct {
	limit sdkmath.Int
}

func (c cappedPolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	bid, ask, err := contrarianPolicy{}.Assign(in)
	if err != nil {
		return bid, ask, err
	}
	if in.Impulse.Side == types.SideBid {
		bid = wad.Min(bid, c.limit)
	} else {
		ask = wad.Min(ask, c.limit)
	}
	return bid, ask, nil
}

// sizeGatedPolicy reacts only to trades above a size threshold; smaller trades just decay both sides.
type sizeGatedPolicy struct {
	threshold sdkmath.Int
}

func (s sizeGatedPolicy) Assign(in PolicyInput) (sdkmath.Int, sdkmath.Int, error) {
	if in.Impulse.Fire && !in.Impulse.TradeRatio.GT(s.threshold) {
		in.Impulse.Fire = false
	}
	return contrarianPolicy{}.Assign(in)
}

// ClampPolicy bounds quoted fees to [min, max].
type ClampPolicy struct {
	Min sdkmath.Int
	Max sdkmath.Int
}

// Apply clamps both fees.
func (c ClampPolicy) Apply(bid, ask sdkmath.Int) (sdkmath.Int, sdkmath.Int) {
	return wad.Clamp(bid, c.Min, c.Max), wad.Clamp(ask, c.Min, c.Max)
}
