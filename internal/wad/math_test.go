package wad

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestMulDivFloor(t *testing.T) {
	one := WAD
	two := WAD.MulRaw(2)
	three := WAD.MulRaw(3)

	q, err := Div(two, three)
	require.NoError(t, err)
	require.Equal(t, "666666666666666666", q.String())

	q, err = Div(sdkmath.OneInt(), three)
	require.NoError(t, err)
	require.True(t, q.IsZero(), "1 wei / 3 WAD must floor to zero")

	p, err := Mul(q.AddRaw(333333333333333333), three)
	require.NoError(t, err)
	require.Equal(t, "999999999999999999", p.String())

	p, err = Mul(one, one)
	require.NoError(t, err)
	require.True(t, p.Equal(WAD))
}

func TestMulDivRational(t *testing.T) {
	fee := Bps(24)
	got, err := MulUint64Div(fee, 8, 9)
	require.NoError(t, err)
	// 24e14 * 8 / 9 = 213333333333333.33 -> floor
	require.Equal(t, "2133333333333333", got.String())
}

func TestDivisionByZero(t *testing.T) {
	_, err := Div(WAD, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrDivisionByZero)

	_, err = MulUint64Div(WAD, 1, 0)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestOverflowIsReported(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))

	_, err := Mul(huge, huge)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Div(huge, sdkmath.OneInt())
	require.ErrorIs(t, err, ErrOverflow)

	maxish := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	_, err = Add(maxish, maxish)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestNegativeOperandsRejected(t *testing.T) {
	_, err := Mul(sdkmath.NewInt(-1), WAD)
	require.ErrorIs(t, err, ErrNegative)

	_, err = AbsDiff(WAD, sdkmath.NewInt(-5))
	require.ErrorIs(t, err, ErrNegative)
}

func TestAbsDiffAndClamp(t *testing.T) {
	d, err := AbsDiff(Bps(10), Bps(30))
	require.NoError(t, err)
	require.True(t, d.Equal(Bps(20)))

	require.True(t, Clamp(Bps(5), Bps(10), Bps(20)).Equal(Bps(10)))
	require.True(t, Clamp(Bps(50), Bps(10), Bps(20)).Equal(Bps(20)))
	require.True(t, Clamp(Bps(15), Bps(10), Bps(20)).Equal(Bps(15)))
}

func FuzzMulMatchesBigInt(f *testing.F) {
	f.Add(uint64(1), uint64(1))
	f.Add(uint64(1e18), uint64(24e14))
	f.Add(uint64(1<<63), uint64(1<<62))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		got, err := Mul(sdkmath.NewIntFromUint64(a), sdkmath.NewIntFromUint64(b))
		require.NoError(t, err)

		want := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
		want.Quo(want, big.NewInt(1e18))
		require.Equal(t, want.String(), got.String())

		if b == 0 {
			return
		}
		q, err := Div(sdkmath.NewIntFromUint64(a), sdkmath.NewIntFromUint64(b))
		require.NoError(t, err)
		// floor(a*WAD/b)*b <= a*WAD
		back := new(big.Int).Mul(q.BigInt(), new(big.Int).SetUint64(b))
		scaled := new(big.Int).Mul(new(big.Int).SetUint64(a), big.NewInt(1e18))
		require.True(t, back.Cmp(scaled) <= 0)
	})
}
