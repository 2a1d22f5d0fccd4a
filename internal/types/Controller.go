/*

This file contains the configurable parameters of the adaptive fee controller.

All fee levels are expressed in basis points and all coefficients as integer ratios, so a parameter
set can be stored, diffed and reloaded without any floating point drift. The controller converts
them to WAD values once at construction.

*/

package types

import "fmt"

// Rational is an integer ratio evaluated with truncating division.
type Rational struct {
	Num uint64 `json:"num" toml:"num"`
	Den uint64 `json:"den" toml:"den"`
}

// NewRational is a shorthand constructor.
func NewRational(num, den uint64) Rational {
	return Rational{Num: num, Den: den}
}

// IsZero reports whether the ratio was left unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 && r.Den == 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// DirectionMode selects how the spiked and decayed values are assigned to the bid and ask.
type DirectionMode string

const (
	DirectionContrarian       DirectionMode = "contrarian"
	DirectionSymmetric        DirectionMode = "symmetric"
	DirectionHalfContrarian   DirectionMode = "half_contrarian"
	DirectionProportionalSame DirectionMode = "proportional_same"
	DirectionTwoLevel         DirectionMode = "two_level"
	DirectionCapped           DirectionMode = "capped"
	DirectionSizeGated        DirectionMode = "size_gated"
)

// ClassifierMode selects the flow classifier. Exactly one is active per parameter set.
type ClassifierMode string

const (
	ClassifierNone          ClassifierMode = "none"
	ClassifierThreshold     ClassifierMode = "threshold"
	ClassifierRegime        ClassifierMode = "regime"
	ClassifierVolatilityEMA ClassifierMode = "volatility_ema"
)

// DecayGranularity selects when decay is applied.
type DecayGranularity string

const (
	DecayPerTrade DecayGranularity = "per_trade"
	DecayPerStep  DecayGranularity = "per_step"
)

// ControllerParameters holds everything needed to construct one fee controller.
type ControllerParameters struct {
	// --- Fee Levels ---
	BaseFeeBps    uint64 `json:"base_fee_bps" toml:"base_fee_bps"`       // Floor the fees decay toward and the level a fresh spike starts from.
	MinFeeBps     uint64 `json:"min_fee_bps" toml:"min_fee_bps"`         // Lower clamp applied to every quoted fee.
	MaxFeeBps     uint64 `json:"max_fee_bps" toml:"max_fee_bps"`         // Upper clamp applied to every quoted fee.
	InitialFeeBps uint64 `json:"initial_fee_bps" toml:"initial_fee_bps"` // Fee quoted after initialization. Zero selects the variant default.

	// --- Spike Model ---
	SpikeLinear    Rational `json:"spike_linear" toml:"spike_linear"`       // Coefficient on the trade ratio.
	SpikeQuadratic Rational `json:"spike_quadratic" toml:"spike_quadratic"` // Coefficient on the squared trade ratio.

	// --- Decay Model ---
	DecayRatio       Rational         `json:"decay_ratio" toml:"decay_ratio"`             // Multiplier applied per decay tick, must be below one.
	SameSideDecay    Rational         `json:"same_side_decay" toml:"same_side_decay"`     // Optional separate ratio for the same side. Zero reuses DecayRatio.
	DecayGranularity DecayGranularity `json:"decay_granularity" toml:"decay_granularity"` // Per trade, or once per distinct timestamp.

	// --- Policies ---
	Direction  DirectionParameters  `json:"direction" toml:"direction"`
	Classifier ClassifierParameters `json:"classifier" toml:"classifier"`

	DelayedSpike bool `json:"delayed_spike" toml:"delayed_spike"` // Apply each trade's spike on the following trade instead.
}

// DirectionParameters configures the DirectionPolicy. Only the fields of the selected mode are read.
type DirectionParameters struct {
	Mode             DirectionMode `json:"mode" toml:"mode"`
	SameBaseBps      uint64        `json:"same_base_bps" toml:"same_base_bps"`           // two_level: floor of the same side.
	OppositeBaseBps  uint64        `json:"opposite_base_bps" toml:"opposite_base_bps"`   // two_level: floor and spike origin of the opposite side.
	SameFraction     Rational      `json:"same_fraction" toml:"same_fraction"`           // proportional_same: share of the spike copied to the same side.
	OppositeCapBps   uint64        `json:"opposite_cap_bps" toml:"opposite_cap_bps"`     // capped: ceiling of the opposite side.
	SizeThresholdBps uint64        `json:"size_threshold_bps" toml:"size_threshold_bps"` // size_gated: trade ratio, in bps of reserveY, that must be exceeded to spike.
}

// ClassifierParameters configures the FlowClassifier. Only the fields of the selected mode are read.
type ClassifierParameters struct {
	Mode ClassifierMode `json:"mode" toml:"mode"`

	// threshold and regime
	ThresholdBps uint64 `json:"threshold_bps" toml:"threshold_bps"` // Trade ratio, in bps of reserveY, above which a trade is Large.

	// regime
	LargeIncrement uint64   `json:"large_increment" toml:"large_increment"`
	SmallDecrement uint64   `json:"small_decrement" toml:"small_decrement"`
	CounterCap     uint64   `json:"counter_cap" toml:"counter_cap"`
	VolatileAbove  uint64   `json:"volatile_above" toml:"volatile_above"`
	VolatileDecay  Rational `json:"volatile_decay" toml:"volatile_decay"`
	CalmDecay      Rational `json:"calm_decay" toml:"calm_decay"`

	// volatility_ema
	EmaWeight     Rational `json:"ema_weight" toml:"ema_weight"`           // Weight k of the newest absolute return.
	NominalVolBps uint64   `json:"nominal_vol_bps" toml:"nominal_vol_bps"` // Volatility at which the base fee is unscaled. Also the seed.
	MinBaseBps    uint64   `json:"min_base_bps" toml:"min_base_bps"`
	MaxBaseBps    uint64   `json:"max_base_bps" toml:"max_base_bps"`
}
