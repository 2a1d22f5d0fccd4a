package simulations

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

// FixedFeeStrategy quotes the same fee on both sides forever. It is the reference pool a
// candidate controller is scored against.
type FixedFeeStrategy struct {
	fee sdkmath.Int
}

// NewFixedFeeStrategy returns a constant-fee strategy.
func NewFixedFeeStrategy(feeBps uint64) *FixedFeeStrategy {
	return &FixedFeeStrategy{fee: wad.Bps(feeBps)}
}

func (f *FixedFeeStrategy) Initialize(sdkmath.Int, sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	return f.fee, f.fee, nil
}

func (f *FixedFeeStrategy) OnSwap(types.TradeEvent) (sdkmath.Int, sdkmath.Int, error) {
	return f.fee, f.fee, nil
}

func (f *FixedFeeStrategy) Name() string {
	bps, err := wad.ToBps(f.fee)
	if err != nil {
		return "fixed"
	}
	return fmt.Sprintf("fixed_%gbps", bps)
}
