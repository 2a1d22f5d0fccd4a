package controller

import (
	"fmt"

	"github.com/elys-network/feelab/internal/types"
)

// maxFeeCeilingBps is a 100% fee. Anything above it would make the pool pay the trader.
const maxFeeCeilingBps = 10_000

// Normalize fills the mode defaults that an empty parameter file leaves out.
func Normalize(p types.ControllerParameters) types.ControllerParameters {
	if p.DecayGranularity == "" {
		p.DecayGranularity = types.DecayPerTrade
	}
	if p.Direction.Mode == "" {
		p.Direction.Mode = types.DirectionContrarian
	}
	if p.Direction.Mode == types.DirectionHalfContrarian && p.Direction.SameFraction.IsZero() {
		p.Direction.SameFraction = types.NewRational(1, 2)
	}
	if p.Classifier.Mode == "" {
		p.Classifier.Mode = types.ClassifierNone
	}
	return p
}

// Validate rejects parameter sets the controller cannot run safely. Parameters are normalized first.
func Validate(params types.ControllerParameters) error {
	p := Normalize(params)

	if p.MinFeeBps > p.MaxFeeBps {
		return fmt.Errorf("%w: min fee %d bps exceeds max fee %d bps", ErrInvalidConfig, p.MinFeeBps, p.MaxFeeBps)
	}
	if p.MaxFeeBps > maxFeeCeilingBps {
		return fmt.Errorf("%w: max fee %d bps exceeds %d bps", ErrInvalidConfig, p.MaxFeeBps, maxFeeCeilingBps)
	}
	if err := inRange("base fee", p.BaseFeeBps, p.MinFeeBps, p.MaxFeeBps); err != nil {
		return err
	}
	if p.InitialFeeBps != 0 {
		if err := inRange("initial fee", p.InitialFeeBps, p.MinFeeBps, p.MaxFeeBps); err != nil {
			return err
		}
	}

	if err := positiveDen("spike linear coefficient", p.SpikeLinear); err != nil {
		return err
	}
	if err := positiveDen("spike quadratic coefficient", p.SpikeQuadratic); err != nil {
		return err
	}
	if err := decayRatio("decay ratio", p.DecayRatio); err != nil {
		return err
	}
	if !p.SameSideDecay.IsZero() {
		if err := decayRatio("same side decay ratio", p.SameSideDecay); err != nil {
			return err
		}
	}

	switch p.DecayGranularity {
	case types.DecayPerTrade, types.DecayPerStep:
	default:
		return fmt.Errorf("%w: unknown decay granularity %q", ErrInvalidConfig, p.DecayGranularity)
	}

	if err := validateDirection(p); err != nil {
		return err
	}
	return validateClassifier(p)
}

func validateDirection(p types.ControllerParameters) error {
	d := p.Direction
	switch d.Mode {
	case types.DirectionContrarian, types.DirectionSymmetric:
		return nil
	case types.DirectionHalfContrarian, types.DirectionProportionalSame:
		if d.SameFraction.Den == 0 || d.SameFraction.Num == 0 || d.SameFraction.Num >= d.SameFraction.Den {
			return fmt.Errorf("%w: same side fraction %s must be strictly between 0 and 1", ErrInvalidConfig, d.SameFraction)
		}
		return nil
	case types.DirectionTwoLevel:
		if err := inRange("two level same base", d.SameBaseBps, p.MinFeeBps, p.MaxFeeBps); err != nil {
			return err
		}
		return inRange("two level opposite base", d.OppositeBaseBps, p.MinFeeBps, p.MaxFeeBps)
	case types.DirectionCapped:
		return inRange("opposite cap", d.OppositeCapBps, p.BaseFeeBps, p.MaxFeeBps)
	case types.DirectionSizeGated:
		if d.SizeThresholdBps == 0 {
			return fmt.Errorf("%w: size gated threshold must be positive", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown direction mode %q", ErrInvalidConfig, d.Mode)
	}
}

func validateClassifier(p types.ControllerParameters) error {
	c := p.Classifier
	switch c.Mode {
	case types.ClassifierNone:
		return nil
	case types.ClassifierThreshold:
		if c.ThresholdBps == 0 {
			return fmt.Errorf("%w: classifier threshold must be positive", ErrInvalidConfig)
		}
		return nil
	case types.ClassifierRegime:
		if c.ThresholdBps == 0 {
			return fmt.Errorf("%w: regime threshold must be positive", ErrInvalidConfig)
		}
		if c.LargeIncrement == 0 || c.CounterCap == 0 {
			return fmt.Errorf("%w: regime increment and cap must be positive", ErrInvalidConfig)
		}
		if c.VolatileAbove >= c.CounterCap {
			return fmt.Errorf("%w: regime threshold %d is unreachable with cap %d", ErrInvalidConfig, c.VolatileAbove, c.CounterCap)
		}
		if err := decayRatio("volatile decay ratio", c.VolatileDecay); err != nil {
			return err
		}
		return decayRatio("calm decay ratio", c.CalmDecay)
	case types.ClassifierVolatilityEMA:
		if c.EmaWeight.Den == 0 || c.EmaWeight.Num == 0 || c.EmaWeight.Num > c.EmaWeight.Den {
			return fmt.Errorf("%w: ema weight %s must be in (0, 1]", ErrInvalidConfig, c.EmaWeight)
		}
		if c.NominalVolBps == 0 {
			return fmt.Errorf("%w: nominal volatility must be positive", ErrInvalidConfig)
		}
		if c.MinBaseBps > c.MaxBaseBps {
			return fmt.Errorf("%w: volatility base range [%d, %d] is empty", ErrInvalidConfig, c.MinBaseBps, c.MaxBaseBps)
		}
		if err := inRange("volatility min base", c.MinBaseBps, p.MinFeeBps, p.MaxFeeBps); err != nil {
			return err
		}
		return inRange("volatility max base", c.MaxBaseBps, p.MinFeeBps, p.MaxFeeBps)
	default:
		return fmt.Errorf("%w: unknown classifier mode %q", ErrInvalidConfig, c.Mode)
	}
}

func inRange(name string, v, lo, hi uint64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d bps outside [%d, %d]", ErrInvalidConfig, name, v, lo, hi)
	}
	return nil
}

func positiveDen(name string, r types.Rational) error {
	if r.Den == 0 {
		return fmt.Errorf("%w: %s has a zero denominator", ErrInvalidConfig, name)
	}
	return nil
}

func decayRatio(name string, r types.Rational) error {
	if err := positiveDen(name, r); err != nil {
		return err
	}
	if r.Num >= r.Den {
		return fmt.Errorf("%w: %s %s must be below 1", ErrInvalidConfig, name, r)
	}
	return nil
}
