package montecarlo

import (
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ClippedNormal is a normal distribution whose samples are clamped into
// [Lower, Upper].
type ClippedNormal struct {
	Mean   float64 `json:"mean" yaml:"mean" mapstructure:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev" mapstructure:"stdDev"`
	Lower  float64 `json:"lower" yaml:"lower" mapstructure:"lower"`
	Upper  float64 `json:"upper" yaml:"upper" mapstructure:"upper"`
}

// Validate rejects a negative standard deviation or inverted bounds.
func (c ClippedNormal) Validate(name string) error {
	if c.StdDev < 0 || math.IsNaN(c.StdDev) || math.IsInf(c.StdDev, 0) {
		return uwerr.New(uwerr.ErrInvalidDistributionConfig, name+".stdDev", c.StdDev, "standard deviation must be non-negative")
	}
	if math.IsNaN(c.Mean) || math.IsInf(c.Mean, 0) {
		return uwerr.New(uwerr.ErrInvalidDistributionConfig, name+".mean", c.Mean, "mean must be finite")
	}
	if c.Lower > c.Upper || math.IsNaN(c.Lower) || math.IsNaN(c.Upper) {
		return uwerr.New(uwerr.ErrInvalidDistributionConfig, name+".lower", c.Lower, "lower bound exceeds upper bound %g", c.Upper)
	}
	return nil
}

// Sample draws one clamped normal variate from src.
func (c ClippedNormal) Sample(src rand.Source) float64 {
	n := distuv.Normal{Mu: c.Mean, Sigma: c.StdDev, Src: src}
	return mathutil.Clamp(n.Rand(), c.Lower, c.Upper)
}

// drawSeed derives an independent stream seed for draw index from the run
// seed with splitmix64, so a draw's samples do not depend on which worker
// runs it or in what order.
func drawSeed(seed uint64, index int) uint64 {
	z := seed + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
