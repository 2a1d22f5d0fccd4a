/*

This file contains the fixed-point primitives used by the fee controller.

Every fee and ratio is an unsigned integer scaled by WAD (10^18). One basis point is BPS (10^14).
Products and quotients are computed on a big.Int intermediate and rounded toward zero, then checked
against the 256-bit bound of sdkmath.Int so that an overflow is reported instead of saturated.

*/

package wad

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for arithmetic failures. None of them are recoverable inside a run.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrNegative       = errors.New("negative fixed-point operand")
)

var (
	// WAD is the fixed-point scale, 10^18.
	WAD = sdkmath.NewIntWithDecimal(1, 18)
	// BPS is one basis point in WAD units, 10^14.
	BPS = sdkmath.NewIntWithDecimal(1, 14)
)

// Bps returns n basis points as a WAD value.
func Bps(n uint64) sdkmath.Int {
	return sdkmath.NewIntFromUint64(n).Mul(BPS)
}

// Mul returns floor(a*b/WAD).
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	return mulDiv(a, b, WAD)
}

// Div returns floor(a*WAD/b).
func Div(a, b sdkmath.Int) (sdkmath.Int, error) {
	return mulDiv(a, WAD, b)
}

// MulDiv returns floor(a*num/den). Ratios held as integer pairs are applied with it.
func MulDiv(a, num, den sdkmath.Int) (sdkmath.Int, error) {
	return mulDiv(a, num, den)
}

// MulUint64Div is MulDiv with a small integer ratio.
func MulUint64Div(a sdkmath.Int, num, den uint64) (sdkmath.Int, error) {
	return mulDiv(a, sdkmath.NewIntFromUint64(num), sdkmath.NewIntFromUint64(den))
}

// Add returns a+b, failing if the sum leaves the 256-bit range.
func Add(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkOperands(a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	sum := new(big.Int).Add(a.BigInt(), b.BigInt())
	return fromBig(sum)
}

// AbsDiff returns |a-b|.
func AbsDiff(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkOperands(a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if a.GTE(b) {
		return a.Sub(b), nil
	}
	return b.Sub(a), nil
}

// Max returns the larger of a and b.
func Max(a, b sdkmath.Int) sdkmath.Int {
	return sdkmath.MaxInt(a, b)
}

// Min returns the smaller of a and b.
func Min(a, b sdkmath.Int) sdkmath.Int {
	return sdkmath.MinInt(a, b)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi sdkmath.Int) sdkmath.Int {
	return sdkmath.MinInt(sdkmath.MaxInt(v, lo), hi)
}

func mulDiv(a, b, den sdkmath.Int) (sdkmath.Int, error) {
	if err := checkOperands(a, b, den); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if den.IsZero() {
		return sdkmath.ZeroInt(), ErrDivisionByZero
	}

	// The product may need up to 512 bits; only the quotient has to fit.
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quotient := product.Quo(product, den.BigInt())
	return fromBig(quotient)
}

func fromBig(v *big.Int) (sdkmath.Int, error) {
	if v.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: result needs %d bits", ErrOverflow, v.BitLen())
	}
	return sdkmath.NewIntFromBigInt(v), nil
}

func checkOperands(values ...sdkmath.Int) error {
	for _, v := range values {
		if v.IsNil() {
			return fmt.Errorf("%w: nil operand", ErrConversionFailed)
		}
		if v.IsNegative() {
			return ErrNegative
		}
	}
	return nil
}
