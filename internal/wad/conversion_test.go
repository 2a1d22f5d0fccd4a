package wad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFloat(t *testing.T) {
	v, err := FromFloat(0.01)
	require.NoError(t, err)
	require.Equal(t, "10000000000000000", v.String())

	v, err = FromFloat(10000)
	require.NoError(t, err)
	require.Equal(t, "10000000000000000000000", v.String())

	v, err = FromFloat(0)
	require.NoError(t, err)
	require.True(t, v.IsZero())

	_, err = FromFloat(-1)
	require.ErrorIs(t, err, ErrAmountNegative)

	_, err = FromFloat(math.NaN())
	require.ErrorIs(t, err, ErrNotFinite)

	_, err = FromFloat(math.Inf(1))
	require.ErrorIs(t, err, ErrNotFinite)
}

func TestToFloatAndBps(t *testing.T) {
	f, err := ToFloat(Bps(164))
	require.NoError(t, err)
	require.InDelta(t, 0.0164, f, 1e-15)

	bps, err := ToBps(Bps(30))
	require.NoError(t, err)
	require.InDelta(t, 30.0, bps, 1e-9)
}

func TestDecStringRoundTrip(t *testing.T) {
	v, err := FromDecString("0.0024")
	require.NoError(t, err)
	require.True(t, v.Equal(Bps(24)))
	require.Equal(t, "0.002400000000000000", ToDecString(v))

	_, err = FromDecString("-0.1")
	require.ErrorIs(t, err, ErrAmountNegative)

	_, err = FromDecString("abc")
	require.ErrorIs(t, err, ErrConversionFailed)
}
