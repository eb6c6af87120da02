// Package bitsync recovers bit timing from a line-21 waveform. Every field
// is phase-locked independently: acquisition jitter and timebase drift in
// analog-sourced recordings make a global phase assumption unreliable.
package bitsync

import (
	"math"

	"go.uber.org/zap"

	"line21/internal/entities"
)

// risingEdgePeriods is where the first run-in rising edge sits relative to
// the scan offset, in bit periods. Derived from the run-in sine landing
// its first minimum half a period in.
const risingEdgePeriods = 0.787

// Synchronizer locates the clock run-in within a field waveform, estimates
// bit phase and period from its threshold crossings, and resolves the two
// raw 8-bit symbols. Not safe for concurrent use: it caches the last good
// burst offset the way the burst tends to stay put between fields.
type Synchronizer struct {
	cal        entities.Calibration
	l          *zap.SugaredLogger
	lastOffset int
	hasLast    bool
}

func NewSynchronizer(cal entities.Calibration, l *zap.SugaredLogger) *Synchronizer {
	return &Synchronizer{cal: cal, l: l}
}

// DetectRunIn reports whether the row carries a clock run-in and the scan
// offset where it was found.
func (s *Synchronizer) DetectRunIn(row []byte) (int, bool) {
	if s.hasLast && s.runInAt(row, s.lastOffset) {
		return s.lastOffset, true
	}
	for offset := s.cal.RunInScanMin; offset <= s.cal.RunInScanMax; offset++ {
		if !s.runInAt(row, offset) {
			continue
		}
		// The template matches over a small offset range; take its middle
		// so the crossing search starts centered.
		span := 0
		for tweak := 1; tweak < int(s.cal.BitPeriod/2); tweak++ {
			if !s.runInAt(row, offset+tweak) {
				break
			}
			span = tweak
		}
		best := offset + span/2
		s.lastOffset = best
		s.hasLast = true
		return best, true
	}
	return 0, false
}

// runInAt scores the alternating run-in template at one offset: enough
// consecutive cycles must put their low half below and high half above the
// luma threshold.
func (s *Synchronizer) runInAt(row []byte, offset int) bool {
	p := s.cal.BitPeriod
	thr := s.cal.LumaThreshold
	run, best := 0, 0
	for i := 0; i < s.cal.RunInCycles; i++ {
		low := sampleAt(row, float64(offset)+(float64(i)+0.5)*p)
		high := sampleAt(row, float64(offset)+float64(i+1)*p)
		if low < thr && high > thr {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best >= s.cal.MinRunInCycles
}

// Decode resolves a field waveform into two raw symbols (parity bit still
// attached). A failed field is an expected outcome, not an error.
func (s *Synchronizer) Decode(samples []byte) (raw1, raw2 byte, outcome entities.SyncOutcome) {
	offset, ok := s.DetectRunIn(samples)
	if !ok {
		return 0, 0, entities.SyncNoRunIn
	}

	phase, period := s.lockClock(samples, offset)

	firstCenter := phase + s.cal.DataOffsetPeriods*period
	half := float64(s.cal.BitSampleWidth) / 2
	if firstCenter+15*period+half >= float64(len(samples)) {
		return 0, 0, entities.SyncOffEnd
	}

	// Start bit: one period before the first data bit, must read high.
	if !s.bitAt(samples, firstCenter-period) {
		return 0, 0, entities.SyncNoRunIn
	}

	var symbols uint16
	for k := 0; k < 16; k++ {
		if s.bitAt(samples, firstCenter+float64(k)*period) {
			symbols |= 1 << uint(k)
		}
	}
	return byte(symbols & 0xFF), byte(symbols >> 8), entities.SyncOK
}

// lockClock measures the run-in's rising threshold crossings and fits them
// to a line, yielding the sub-sample phase of the first edge and the true
// bit period. Falls back to the nominal period when the estimate drifts
// beyond tolerance.
func (s *Synchronizer) lockClock(samples []byte, offset int) (phase, period float64) {
	p := s.cal.BitPeriod
	thr := s.cal.LumaThreshold

	var xs, idx []float64
	for i := 0; i < s.cal.RunInCycles; i++ {
		nominal := float64(offset) + (risingEdgePeriods+float64(i))*p
		if x, ok := risingCrossing(samples, nominal-p/3, nominal+p/3, thr); ok {
			xs = append(xs, x)
			idx = append(idx, float64(i))
		}
	}

	phase = float64(offset) + risingEdgePeriods*p
	period = p
	if len(xs) < 2 {
		return phase, period
	}

	a, b := leastSquares(idx, xs)
	if math.Abs(b-p)/p > s.cal.PeriodTolerance {
		// Crossings too scattered to trust; keep the nominal clock but
		// use the measured average position as phase.
		mean := 0.0
		for i, x := range xs {
			mean += x - idx[i]*p
		}
		return mean / float64(len(xs)), p
	}
	return a, b
}

// bitAt takes a majority vote over the configured window around a bit
// center.
func (s *Synchronizer) bitAt(samples []byte, center float64) bool {
	w := s.cal.BitSampleWidth
	votes := 0
	for d := -(w - 1) / 2; d <= (w-1)/2; d++ {
		if sampleAt(samples, center+float64(d)) > s.cal.LumaThreshold {
			votes++
		}
	}
	return votes*2 > w
}

// risingCrossing finds the sub-sample position where the waveform crosses
// the threshold upward within [from, to].
func risingCrossing(samples []byte, from, to, thr float64) (float64, bool) {
	lo := int(math.Floor(from))
	hi := int(math.Ceil(to))
	if lo < 0 {
		lo = 0
	}
	for x := lo; x < hi && x+1 < len(samples); x++ {
		v0 := float64(samples[x])
		v1 := float64(samples[x+1])
		if v0 < thr && v1 >= thr {
			return float64(x) + (thr-v0)/(v1-v0), true
		}
	}
	return 0, false
}

// sampleAt linearly interpolates the waveform at a fractional position.
// Out-of-range positions read as black.
func sampleAt(row []byte, x float64) float64 {
	if x < 0 || x >= float64(len(row)-1) {
		return 0
	}
	i := int(x)
	frac := x - float64(i)
	return float64(row[i])*(1-frac) + float64(row[i+1])*frac
}

func leastSquares(xs, ys []float64) (intercept, slope float64) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return ys[0], 0
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return intercept, slope
}
