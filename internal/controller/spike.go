package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// SpikeModel maps a trade ratio to a fee increment: ratio*linear + ratio^2*quadratic.
// Each term is floored on its own, in that order.
type SpikeModel struct {
	linNum, linDen   sdkmath.Int
	quadNum, quadDen sdkmath.Int
}

// NewSpikeModel builds the model from validated coefficients.
func NewSpikeModel(linear, quadratic types.Rational) SpikeModel {
	return SpikeModel{
		linNum:  sdkmath.NewIntFromUint64(linear.Num),
		linDen:  sdkmath.NewIntFromUint64(linear.Den),
		quadNum: sdkmath.NewIntFromUint64(quadratic.Num),
		quadDen: sdkmath.NewIntFromUint64(quadratic.Den),
	}
}

// Spike returns the increment for a trade ratio (WAD).
func (m SpikeModel) Spike(tradeRatio sdkmath.Int) (sdkmath.Int, error) {
	linear, err := wad.MulDiv(tradeRatio, m.linNum, m.linDen)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	squared, err := wad.Mul(tradeRatio, tradeRatio)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	quadratic, err := wad.MulDiv(squared, m.quadNum, m.quadDen)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return wad.Add(linear, quadratic)
}

// TradeRatio is amountY/reserveY on post-trade reserves.
func TradeRatio(trade types.TradeEvent) (sdkmath.Int, error) {
	return wad.Div(trade.AmountY, trade.ReserveY)
}
