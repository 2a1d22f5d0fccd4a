package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
)

// FeeState is the mutable state of one pool's controller. Fields unused by the configured
// variant stay at their zero value.
type FeeState struct {
	BidFee sdkmath.Int `json:"bid_fee"`
	AskFee sdkmath.Int `json:"ask_fee"`

	// per-step decay gating
	LastTimestamp uint64 `json:"last_timestamp"`
	TradesInStep  uint64 `json:"trades_in_step"`

	// regime classifier
	RegimeCounter uint64 `json:"regime_counter"`

	// volatility classifier
	VolatilityEstimate sdkmath.Int `json:"volatility_estimate"`
	LastSpot           sdkmath.Int `json:"last_spot"`

	// delayed spike
	PendingSpike sdkmath.Int `json:"pending_spike"`
	PendingRatio sdkmath.Int `json:"pending_ratio"`
	PendingSide  types.Side  `json:"pending_side"`
}

// advanceStep records the trade timestamp and reports whether decay applies to this trade.
// Per-trade decay always applies. Per-step decay applies on the first trade of each new timestamp.
func (s *FeeState) advanceStep(timestamp uint64, granularity types.DecayGranularity) bool {
	newStep := timestamp != s.LastTimestamp
	if newStep {
		s.LastTimestamp = timestamp
		s.TradesInStep = 1
	} else {
		s.TradesInStep++
	}

	if granularity == types.DecayPerStep {
		return newStep
	}
	return true
}

func (s *FeeState) clearPending() {
	s.PendingSpike = sdkmath.ZeroInt()
	s.PendingRatio = sdkmath.ZeroInt()
	s.PendingSide = types.SideNone
}

func (s FeeState) fee(side types.Side) sdkmath.Int {
	if side == types.SideBid {
		return s.BidFee
	}
	return s.AskFee
}
