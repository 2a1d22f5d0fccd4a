/*
This file contains the conversions between WAD fixed-point values and the float64 and decimal
representations used by the simulator, the analyzer and the storage layer.
*/

package wad

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Precision is the number of decimals carried by a WAD value.
const Precision = 18

// Error definitions for zero-tolerance conversion handling
var (
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// ToFloat converts a WAD value to float64. Precision loss is expected and only acceptable
// outside the controller (simulated reserves, reporting).
func ToFloat(amount sdkmath.Int) (float64, error) {
	if amount.IsNil() {
		return 0, fmt.Errorf("%w: amount is nil", ErrConversionFailed)
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	result := sdkmath.LegacyNewDecFromIntWithPrec(amount, Precision)
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}

// FromFloat converts a float64 to a WAD value, truncating beyond 18 decimals.
func FromFloat(amount float64) (sdkmath.Int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if amount == 0 {
		return sdkmath.ZeroInt(), nil
	}

	// Use string conversion to avoid binary floating point artifacts in the decimal digits
	amountStr := fmt.Sprintf("%.*f", Precision, amount)

	decAmount, err := sdkmath.LegacyNewDecFromStr(amountStr)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: failed to create decimal from string: %w", ErrConversionFailed, err)
	}

	// LegacyDec stores exactly 18 decimals, so its backing integer is the WAD value.
	return fromBig(decAmount.BigInt())
}

// ToBps converts a WAD fee to basis points for reporting.
func ToBps(fee sdkmath.Int) (float64, error) {
	f, err := ToFloat(fee)
	if err != nil {
		return 0, err
	}
	return f * 1e4, nil
}

// FromDecString parses a decimal string such as "0.0024" into a WAD value.
func FromDecString(s string) (sdkmath.Int, error) {
	dec, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if dec.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return fromBig(dec.BigInt())
}

// ToDecString formats a WAD value as an 18-decimal string.
func ToDecString(amount sdkmath.Int) string {
	if amount.IsNil() {
		return "0"
	}
	return sdkmath.LegacyNewDecFromIntWithPrec(amount, Precision).String()
}
