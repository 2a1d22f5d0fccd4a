package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// DecayModel relaxes a fee multiplicatively toward a floor.
type DecayModel struct {
	num, den sdkmath.Int
}

// NewDecayModel builds the model from a validated ratio below one.
func NewDecayModel(ratio types.Rational) DecayModel {
	return DecayModel{
		num: sdkmath.NewIntFromUint64(ratio.Num),
		den: sdkmath.NewIntFromUint64(ratio.Den),
	}
}

// Decay returns max(fee*num/den, floor).
func (m DecayModel) Decay(fee, floor sdkmath.Int) (sdkmath.Int, error) {
	decayed, err := wad.MulDiv(fee, m.num, m.den)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return wad.Max(decayed, floor), nil
}

// decayStep is the decay to apply during one OnSwap call. When apply is false (a later trade inside
// an already decayed step) fees pass through untouched.
type decayStep struct {
	apply    bool
	opposite DecayModel
	same     DecayModel
}

func (d decayStep) opp(fee, floor sdkmath.Int) (sdkmath.Int, error) {
	if !d.apply {
		return fee, nil
	}
	return d.opposite.Decay(fee, floor)
}

func (d decayStep) sameSide(fee, floor sdkmath.Int) (sdkmath.Int, error) {
	if !d.apply {
		return fee, nil
	}
	return d.same.Decay(fee, floor)
}
