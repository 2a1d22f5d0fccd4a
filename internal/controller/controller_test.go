package controller

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/feelab/internal/types"
	"github.com/elys-network/feelab/internal/wad"
)

var (
	reserveX = wad.WAD.MulRaw(100)
	reserveY = wad.WAD.MulRaw(10_000)
)

func baselineParams() types.ControllerParameters {
	return types.ControllerParameters{
		BaseFeeBps:     24,
		MinFeeBps:      1,
		MaxFeeBps:      10_000,
		SpikeLinear:    types.NewRational(5, 4),
		SpikeQuadratic: types.NewRational(15, 1),
		DecayRatio:     types.NewRational(8, 9),
		Direction:      types.DirectionParameters{Mode: types.DirectionContrarian},
		Classifier:     types.ClassifierParameters{Mode: types.ClassifierNone},
	}
}

// tradeAt builds a trade whose amountY/reserveY equals ratioBps basis points.
func tradeAt(ratioBps uint64, isBuy bool, timestamp uint64) types.TradeEvent {
	amountY := wad.WAD.Mul(sdkmath.NewIntFromUint64(ratioBps))
	return types.TradeEvent{
		AmountX:   amountY.QuoRaw(100),
		AmountY:   amountY,
		ReserveX:  reserveX,
		ReserveY:  reserveY,
		IsBuy:     isBuy,
		Timestamp: timestamp,
	}
}

func newInitialized(t *testing.T, p types.ControllerParameters) *FeeController {
	t.Helper()
	c, err := NewFeeController(p)
	require.NoError(t, err)
	_, _, err = c.Initialize(reserveX, reserveY)
	require.NoError(t, err)
	return c
}

func decayed(t *testing.T, fee sdkmath.Int, num, den uint64, floor sdkmath.Int) sdkmath.Int {
	t.Helper()
	d, err := wad.MulUint64Div(fee, num, den)
	require.NoError(t, err)
	return wad.Max(d, floor)
}

func requireBps(t *testing.T, want uint64, got sdkmath.Int) {
	t.Helper()
	require.Truef(t, got.Equal(wad.Bps(want)), "want %d bps, got %s", want, wad.ToDecString(got))
}

func TestInitializeQuotesBase(t *testing.T) {
	c, err := NewFeeController(baselineParams())
	require.NoError(t, err)

	bid, ask, err := c.Initialize(reserveX, reserveY)
	require.NoError(t, err)
	requireBps(t, 24, bid)
	requireBps(t, 24, ask)
	require.Equal(t, uint64(0), c.State().LastTimestamp)
}

func TestContrarianSpikeScenario(t *testing.T) {
	c := newInitialized(t, baselineParams())

	// ratio 0.01: spike = 0.0125 + 0.0015 = 140 bps, fresh = 164 bps
	bid, ask, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	requireBps(t, 164, ask)
	requireBps(t, 24, bid)

	// The mirrored trade spikes the bid and decays the ask.
	bid, ask, err = c.OnSwap(tradeAt(100, false, 2))
	require.NoError(t, err)
	requireBps(t, 164, bid)
	require.True(t, ask.Equal(decayed(t, wad.Bps(164), 8, 9, wad.Bps(24))))
}

func TestSpikeIsMonotone(t *testing.T) {
	m := NewSpikeModel(types.NewRational(5, 4), types.NewRational(15, 1))

	prev := sdkmath.ZeroInt()
	for ratioBps := uint64(0); ratioBps <= 10_000; ratioBps += 7 {
		s, err := m.Spike(wad.Bps(ratioBps))
		require.NoError(t, err)
		require.True(t, s.GTE(prev), "spike decreased at %d bps", ratioBps)
		prev = s
	}
}

func FuzzSpikeMonotone(f *testing.F) {
	f.Add(uint64(0), uint64(1))
	f.Add(uint64(30), uint64(31))
	f.Add(uint64(1e18), uint64(1e18+1))

	m := NewSpikeModel(types.NewRational(5, 4), types.NewRational(15, 1))
	f.Fuzz(func(t *testing.T, a, b uint64) {
		if a > b {
			a, b = b, a
		}
		sa, err := m.Spike(sdkmath.NewIntFromUint64(a))
		require.NoError(t, err)
		sb, err := m.Spike(sdkmath.NewIntFromUint64(b))
		require.NoError(t, err)
		require.True(t, sb.GTE(sa))
	})
}

func TestContrarianOppositeNeverDropsBelowFresh(t *testing.T) {
	c := newInitialized(t, baselineParams())

	_, _, err := c.OnSwap(tradeAt(300, true, 1))
	require.NoError(t, err)

	for ts, ratio := range []uint64{5, 50, 120, 400} {
		before := c.State()
		_, ask, err := c.OnSwap(tradeAt(ratio, true, uint64(ts+2)))
		require.NoError(t, err)

		spike, err := NewSpikeModel(types.NewRational(5, 4), types.NewRational(15, 1)).Spike(wad.Bps(ratio))
		require.NoError(t, err)
		fresh := wad.Bps(24).Add(spike)
		if fresh.GTE(decayed(t, before.AskFee, 8, 9, wad.Bps(24))) {
			require.True(t, ask.GTE(before.AskFee), "ask fell after a buy with fresh above decay")
		}
		require.True(t, ask.GTE(fresh))
	}
}

func TestZeroFlowConvergesToBase(t *testing.T) {
	c := newInitialized(t, baselineParams())

	_, _, err := c.OnSwap(tradeAt(500, true, 1))
	require.NoError(t, err)
	peak := c.State().AskFee

	peakBps, err := wad.ToBps(peak)
	require.NoError(t, err)
	bound := int(math.Ceil(math.Log(peakBps/24)/math.Log(9.0/8.0))) + 1

	var bid, ask sdkmath.Int
	for i := 0; i < bound; i++ {
		bid, ask, err = c.OnSwap(tradeAt(0, i%2 == 0, uint64(i+2)))
		require.NoError(t, err)
	}
	requireBps(t, 24, bid)
	requireBps(t, 24, ask)
}

func TestTwoLevelConvergesToSeparateFloors(t *testing.T) {
	p := baselineParams()
	p.Direction = types.DirectionParameters{Mode: types.DirectionTwoLevel, SameBaseBps: 20, OppositeBaseBps: 30}
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(200, true, 1))
	require.NoError(t, err)
	require.True(t, ask.GT(wad.Bps(30)))
	requireBps(t, 20, bid)

	for i := 0; i < 40; i++ {
		bid, ask, err = c.OnSwap(tradeAt(0, true, uint64(i+2)))
		require.NoError(t, err)
		require.True(t, bid.LTE(ask), "same side crossed above opposite side")
		require.True(t, bid.GTE(wad.Bps(20)))
		require.True(t, ask.GTE(wad.Bps(30)))
	}
	requireBps(t, 20, bid)
	requireBps(t, 30, ask)
}

func TestSizeGatedSmallTradeOnlyDecays(t *testing.T) {
	p := baselineParams()
	p.Direction = types.DirectionParameters{Mode: types.DirectionSizeGated, SizeThresholdBps: 20}
	c := newInitialized(t, p)

	// 100 bps is above the 20 bps gate and spikes the ask.
	_, _, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	before := c.State()
	requireBps(t, 164, before.AskFee)

	// 10 bps (0.001) is below the gate: both sides only decay.
	bid, ask, err := c.OnSwap(tradeAt(10, false, 2))
	require.NoError(t, err)
	require.True(t, bid.Equal(decayed(t, before.BidFee, 8, 9, wad.Bps(24))))
	require.True(t, ask.Equal(decayed(t, before.AskFee, 8, 9, wad.Bps(24))))

	spike, err := c.spike.Spike(wad.Bps(10))
	require.NoError(t, err)
	fresh := wad.Bps(24).Add(spike)
	require.False(t, bid.Equal(fresh))
	require.False(t, ask.Equal(fresh))
}

func TestSymmetricRoundTrip(t *testing.T) {
	p := baselineParams()
	p.Direction.Mode = types.DirectionSymmetric
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(50, true, 1))
	require.NoError(t, err)
	require.True(t, bid.Equal(ask))
	afterBuy := ask

	bid, ask, err = c.OnSwap(tradeAt(50, false, 2))
	require.NoError(t, err)
	require.True(t, bid.Equal(ask))

	oneStep := afterBuy.Sub(decayed(t, afterBuy, 8, 9, wad.Bps(24)))
	diff, err := wad.AbsDiff(ask, afterBuy)
	require.NoError(t, err)
	require.True(t, diff.LTE(oneStep))

	// Direction carries no memory: the reverse order lands on the same fee.
	r := newInitialized(t, p)
	_, _, err = r.OnSwap(tradeAt(50, false, 1))
	require.NoError(t, err)
	rb, ra, err := r.OnSwap(tradeAt(50, true, 2))
	require.NoError(t, err)
	require.True(t, rb.Equal(bid))
	require.True(t, ra.Equal(ask))
}

func TestPerStepDecayAppliesOncePerTimestamp(t *testing.T) {
	p := baselineParams()
	p.DecayGranularity = types.DecayPerStep
	c := newInitialized(t, p)

	_, _, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	spiked := c.State().AskFee

	// Same timestamp: no decay.
	_, ask, err := c.OnSwap(tradeAt(0, true, 1))
	require.NoError(t, err)
	require.True(t, ask.Equal(spiked))
	require.Equal(t, uint64(2), c.State().TradesInStep)

	_, ask, err = c.OnSwap(tradeAt(0, true, 1))
	require.NoError(t, err)
	require.True(t, ask.Equal(spiked))
	require.Equal(t, uint64(3), c.State().TradesInStep)

	// New timestamp: exactly one decay tick.
	_, ask, err = c.OnSwap(tradeAt(0, true, 2))
	require.NoError(t, err)
	require.True(t, ask.Equal(decayed(t, spiked, 8, 9, wad.Bps(24))))
	require.Equal(t, uint64(1), c.State().TradesInStep)

	// Per-trade decay would have compounded inside the step.
	q := newInitialized(t, baselineParams())
	_, _, err = q.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	_, ask, err = q.OnSwap(tradeAt(0, true, 1))
	require.NoError(t, err)
	require.True(t, ask.LT(spiked))
}

func TestLifecycleErrors(t *testing.T) {
	c, err := NewFeeController(baselineParams())
	require.NoError(t, err)

	_, _, err = c.OnSwap(tradeAt(10, true, 1))
	require.ErrorIs(t, err, ErrNotInitialized)

	_, _, err = c.Initialize(reserveX, reserveY)
	require.NoError(t, err)
	_, _, err = c.Initialize(reserveX, reserveY)
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	_, _, err = c.OnSwap(tradeAt(10, true, 5))
	require.NoError(t, err)
	_, _, err = c.OnSwap(tradeAt(10, true, 4))
	require.ErrorIs(t, err, ErrTimestampRegression)
}

func TestArithmeticFailureLeavesStateUntouched(t *testing.T) {
	c := newInitialized(t, baselineParams())
	_, _, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	before := c.State()

	bad := tradeAt(100, false, 2)
	bad.ReserveY = sdkmath.ZeroInt()
	_, _, err = c.OnSwap(bad)
	require.ErrorIs(t, err, wad.ErrDivisionByZero)
	require.Equal(t, before, c.State())

	fresh, err := NewFeeController(baselineParams())
	require.NoError(t, err)
	_, _, err = fresh.Initialize(sdkmath.ZeroInt(), reserveY)
	require.ErrorIs(t, err, wad.ErrDivisionByZero)

	// A failed Initialize does not consume the single allowed call.
	_, _, err = fresh.Initialize(reserveX, reserveY)
	require.NoError(t, err)
}

func TestProportionalSameCopiesDampedSpike(t *testing.T) {
	p := baselineParams()
	p.Direction = types.DirectionParameters{Mode: types.DirectionHalfContrarian}
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	requireBps(t, 164, ask)
	requireBps(t, 94, bid) // 24 + 140/2
}

func TestCappedLimitsOppositeSide(t *testing.T) {
	p := baselineParams()
	p.Direction = types.DirectionParameters{Mode: types.DirectionCapped, OppositeCapBps: 100}
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	requireBps(t, 100, ask)
	requireBps(t, 24, bid)

	// Below the cap the policy matches plain contrarian.
	bid, _, err = c.OnSwap(tradeAt(20, false, 2))
	require.NoError(t, err)
	require.True(t, bid.LT(wad.Bps(100)))
}

func TestThresholdClassifierSuppressesSmallSpikes(t *testing.T) {
	p := baselineParams()
	p.Classifier = types.ClassifierParameters{Mode: types.ClassifierThreshold, ThresholdBps: 30}
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(25, true, 1))
	require.NoError(t, err)
	requireBps(t, 24, bid)
	requireBps(t, 24, ask)

	_, ask, err = c.OnSwap(tradeAt(100, true, 2))
	require.NoError(t, err)
	requireBps(t, 164, ask)
}

func TestRegimeCounterSaturatesAndSelectsDecay(t *testing.T) {
	p := baselineParams()
	p.Classifier = types.ClassifierParameters{
		Mode:           types.ClassifierRegime,
		ThresholdBps:   30,
		LargeIncrement: 3,
		SmallDecrement: 1,
		CounterCap:     10,
		VolatileAbove:  3,
		VolatileDecay:  types.NewRational(8, 9),
		CalmDecay:      types.NewRational(3, 4),
	}
	c := newInitialized(t, p)

	for i, want := range []uint64{3, 6, 9, 10, 10} {
		_, _, err := c.OnSwap(tradeAt(100, true, uint64(i+1)))
		require.NoError(t, err)
		require.Equal(t, want, c.State().RegimeCounter)
	}

	// Volatile: the held spike decays by 8/9.
	before := c.State()
	_, ask, err := c.OnSwap(tradeAt(0, true, 6))
	require.NoError(t, err)
	require.Equal(t, uint64(9), c.State().RegimeCounter)
	require.True(t, ask.Equal(decayed(t, before.AskFee, 8, 9, wad.Bps(24))))

	for ts := uint64(7); ts < 30; ts++ {
		_, _, err = c.OnSwap(tradeAt(0, true, ts))
		require.NoError(t, err)
	}
	require.Equal(t, uint64(0), c.State().RegimeCounter)

	// One large trade brings the counter to 3, which is still calm: spikes fade by 3/4.
	_, _, err = c.OnSwap(tradeAt(100, true, 30))
	require.NoError(t, err)
	require.Equal(t, uint64(3), c.State().RegimeCounter)
	before = c.State()
	_, ask, err = c.OnSwap(tradeAt(0, true, 31))
	require.NoError(t, err)
	require.Equal(t, uint64(2), c.State().RegimeCounter)
	require.True(t, ask.Equal(decayed(t, before.AskFee, 3, 4, wad.Bps(24))))
}

func volatilityParams() types.ControllerParameters {
	p := baselineParams()
	p.Classifier = types.ClassifierParameters{
		Mode:          types.ClassifierVolatilityEMA,
		EmaWeight:     types.NewRational(1, 16),
		NominalVolBps: 10,
		MinBaseBps:    20,
		MaxBaseBps:    40,
	}
	return p
}

func TestVolatilityEMAScalesBase(t *testing.T) {
	c := newInitialized(t, volatilityParams())
	require.True(t, c.State().VolatilityEstimate.Equal(wad.Bps(10)))

	// Unchanged spot: the estimate shrinks to 15/16 of nominal and the base to 22.5 bps.
	bid, ask, err := c.OnSwap(tradeAt(0, true, 1))
	require.NoError(t, err)
	want := wad.Bps(225).QuoRaw(10)
	require.True(t, bid.Equal(want), "bid %s", wad.ToDecString(bid))
	require.True(t, ask.Equal(want), "ask %s", wad.ToDecString(ask))

	// A 10% spot jump pushes the scaled base to its 40 bps ceiling.
	jump := tradeAt(0, true, 2)
	jump.ReserveY = wad.WAD.MulRaw(11_000)
	bid, ask, err = c.OnSwap(jump)
	require.NoError(t, err)
	requireBps(t, 40, bid)
	requireBps(t, 40, ask)
	require.True(t, c.State().VolatilityEstimate.GT(wad.Bps(10)))
}

func TestDelayedSpikeAppliesOnNextTrade(t *testing.T) {
	p := baselineParams()
	p.DelayedSpike = true
	c := newInitialized(t, p)

	bid, ask, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	requireBps(t, 24, bid)
	requireBps(t, 24, ask)
	require.Equal(t, types.SideAsk, c.State().PendingSide)

	// The next trade, whatever its direction, releases the pending ask spike.
	bid, ask, err = c.OnSwap(tradeAt(0, false, 2))
	require.NoError(t, err)
	requireBps(t, 164, ask)
	requireBps(t, 24, bid)
	require.Equal(t, types.SideBid, c.State().PendingSide)
}

func TestSameSideDecaySplit(t *testing.T) {
	p := baselineParams()
	p.DecayRatio = types.NewRational(14, 15)
	p.SameSideDecay = types.NewRational(6, 7)
	c := newInitialized(t, p)

	_, _, err := c.OnSwap(tradeAt(100, true, 1))
	require.NoError(t, err)
	before := c.State()

	// A sell makes the ask the same side.
	_, ask, err := c.OnSwap(tradeAt(0, false, 2))
	require.NoError(t, err)
	require.True(t, ask.Equal(decayed(t, before.fee(types.SideAsk), 6, 7, wad.Bps(24))))

	// A buy makes it the opposite side again.
	before = c.State()
	_, ask, err = c.OnSwap(tradeAt(0, true, 3))
	require.NoError(t, err)
	require.True(t, ask.Equal(decayed(t, before.AskFee, 14, 15, wad.Bps(24))))
}
