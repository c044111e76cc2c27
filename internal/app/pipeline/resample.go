package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// DefaultMaxSpan bounds the time covered by one recording before resampling.
const DefaultMaxSpan = time.Hour

// maxGridPoints caps the output length whatever the rate and span.
const maxGridPoints = 1 << 24

// Resample converts an irregular series onto a uniform grid of period
// 1/targetRate starting at ts[0], using linear interpolation between the
// bracketing raw samples. Inputs with fewer than two samples are returned as is.
// Series spanning more than DefaultMaxSpan are rejected.
func Resample(ts, vals []float64, targetRate float64) ([]float64, []float64, error) {
	return ResampleWithin(ts, vals, targetRate, DefaultMaxSpan)
}

// ResampleWithin is Resample with an explicit span limit; maxSpan <= 0 means
// DefaultMaxSpan. The grid size is checked before anything is allocated.
func ResampleWithin(ts, vals []float64, targetRate float64, maxSpan time.Duration) ([]float64, []float64, error) {
	if maxSpan <= 0 {
		maxSpan = DefaultMaxSpan
	}
	if len(ts) != len(vals) {
		return nil, nil, fmt.Errorf("%w: %d timestamps vs %d values", domain.ErrInvalidSeries, len(ts), len(vals))
	}
	if len(ts) < 2 {
		return ts, vals, nil
	}
	if !(targetRate > 0) || math.IsInf(targetRate, 0) {
		return nil, nil, fmt.Errorf("%w: target rate %v", domain.ErrInvalidSeries, targetRate)
	}
	for i := range ts {
		if math.IsNaN(ts[i]) || math.IsInf(ts[i], 0) {
			return nil, nil, fmt.Errorf("%w: timestamp %d is not finite", domain.ErrInvalidSeries, i)
		}
		if i > 0 && ts[i] < ts[i-1] {
			return nil, nil, fmt.Errorf("%w: timestamp %d out of order", domain.ErrInvalidSeries, i)
		}
	}

	span := ts[len(ts)-1] - ts[0]
	if span > maxSpan.Seconds() {
		return nil, nil, fmt.Errorf("%w: span %.3fs exceeds %s", domain.ErrInvalidSeries, span, maxSpan)
	}
	if points := span*targetRate + 1; points > maxGridPoints {
		return nil, nil, fmt.Errorf("%w: %.0f grid points at %v Hz", domain.ErrInvalidSeries, points, targetRate)
	}

	var (
		last  = len(ts) - 1
		start = ts[0]
		dt    = 1.0 / targetRate
		count = int(math.Floor((ts[last]-start)/dt)) + 1
		outTs = make([]float64, count)
		outVs = make([]float64, count)
		next  int // first raw index with ts[next] > t
	)

	for i := 0; i < count; i++ {
		t := start + float64(i)*dt
		outTs[i] = t

		for next <= last && ts[next] <= t {
			next++
		}
		idx := next
		if idx > last {
			idx = last
		}
		i1, i2 := max(0, idx-1), min(idx, last)
		t1, t2 := ts[i1], ts[i2]
		v1, v2 := vals[i1], vals[i2]
		if t2 != t1 {
			outVs[i] = v1 + (t-t1)/(t2-t1)*(v2-v1)
		} else {
			outVs[i] = v1
		}
	}
	return outTs, outVs, nil
}

// ResampleSeries is ResampleWithin over a domain.Series.
func ResampleSeries(s domain.Series, targetRate float64, maxSpan time.Duration) (domain.Series, error) {
	ts, vs, err := ResampleWithin(s.Timestamps, s.Values, targetRate, maxSpan)
	if err != nil {
		return domain.Series{}, err
	}
	return domain.Series{Timestamps: ts, Values: vs}, nil
}
