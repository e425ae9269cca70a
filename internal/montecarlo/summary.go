package montecarlo

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile is one point of an empirical distribution. P is in [0,100].
type Percentile struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// Summary describes an empirical distribution. All fields are zero when
// Count is zero.
type Summary struct {
	Count       int          `json:"count"`
	Mean        float64      `json:"mean"`
	StdDev      float64      `json:"stdDev"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Percentiles []Percentile `json:"percentiles"`
}

// Value returns the percentile p, if it was computed.
func (s Summary) Value(p float64) (float64, bool) {
	for _, pc := range s.Percentiles {
		if pc.P == p {
			return pc.Value, true
		}
	}
	return 0, false
}

// Probability is the share of draws strictly below Threshold.
type Probability struct {
	Metric      string  `json:"metric"`
	Threshold   float64 `json:"threshold"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// Summarize computes summary statistics over values. Percentiles are
// returned in ascending order of p using the empirical quantile, so values
// are non-decreasing. values is not modified.
func Summarize(values []float64, percentiles []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	if len(sorted) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}

	ps := append([]float64(nil), percentiles...)
	sort.Float64s(ps)
	s.Percentiles = make([]Percentile, 0, len(ps))
	for _, p := range ps {
		s.Percentiles = append(s.Percentiles, Percentile{
			P:     p,
			Value: stat.Quantile(p/100, stat.Empirical, sorted, nil),
		})
	}
	return s
}

// BreachProbability returns the share of values strictly below threshold.
func BreachProbability(metric string, values []float64, threshold float64) Probability {
	p := Probability{Metric: metric, Threshold: threshold}
	if len(values) == 0 {
		return p
	}
	for _, v := range values {
		if v < threshold {
			p.Count++
		}
	}
	p.Probability = float64(p.Count) / float64(len(values))
	return p
}
