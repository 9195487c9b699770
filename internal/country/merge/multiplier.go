package merge

import "math/rand/v2"

// MultiplierSource yields the U factor of the GDP estimate.
type MultiplierSource interface {
	Sample() float64
}

// Fixed always returns the same multiplier. Tests pin U with it.
type Fixed float64

func (f Fixed) Sample() float64 { return float64(f) }

// Uniform samples U uniformly from [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

func NewUniform(min, max float64) Uniform {
	return Uniform{Min: min, Max: max}
}

func (u Uniform) Sample() float64 {
	if u.Max <= u.Min {
		return u.Min
	}
	return u.Min + rand.Float64()*(u.Max-u.Min)
}
