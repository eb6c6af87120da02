// Package testsignal synthesizes line-21 waveforms for tests: a clock
// run-in, start bits and two data symbols rendered into a luma row with
// controllable phase, period and noise.
package testsignal

import (
	"math"
	"math/rand"

	"line21/internal/parity"
)

// Options shape the synthesized waveform. The zero value renders a clean,
// nominally-aligned 720-sample row.
type Options struct {
	Width  int
	Offset float64 // horizontal shift of the whole burst, in samples
	Period float64 // samples per bit, default 27
	Black  byte
	White  byte
	Noise  float64 // peak amplitude of added uniform noise
	Seed   int64
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 720
	}
	if o.Period == 0 {
		o.Period = 27
	}
	if o.Black == 0 {
		o.Black = 20
	}
	if o.White == 0 {
		o.White = 200
	}
	return o
}

// Geometry shared with the decoder's defaults: first rising edge 0.787
// periods past the burst origin, first data bit center 9.82 periods past
// that edge.
const (
	risingEdgePeriods = 0.787
	dataOffsetPeriods = 9.82
	runInCycles       = 7
)

// Row renders a field waveform carrying the two 7-bit data values, with
// odd parity inserted.
func Row(b1, b2 byte, opts Options) []byte {
	return RawRow(parity.WithParity(b1), parity.WithParity(b2), opts)
}

// RawRow renders a field waveform carrying two raw 8-bit symbols exactly
// as given, parity bit included. Lets tests forge parity errors.
func RawRow(raw1, raw2 byte, opts Options) []byte {
	o := opts.withDefaults()
	row := make([]byte, o.Width)
	rng := rand.New(rand.NewSource(o.Seed))

	black := float64(o.Black)
	white := float64(o.White)
	mid := (black + white) / 2
	amp := (white - black) / 2

	p := o.Period
	origin := o.Offset
	edge := origin + risingEdgePeriods*p
	runInEnd := origin + float64(runInCycles)*p
	firstCenter := edge + dataOffsetPeriods*p

	bits := uint32(raw1) | uint32(raw2)<<8
	value := func(x float64) float64 {
		if x >= origin && x < runInEnd {
			return mid + amp*math.Sin(2*math.Pi*(x-edge)/p)
		}
		// Start code '001' occupies the three bit cells before the data;
		// cell 0 below is the first of them, cell 2 the start bit, cells
		// 3..18 the sixteen data bits.
		cell := int(math.Floor((x - (firstCenter - 3.5*p)) / p))
		switch {
		case cell < 0 || cell > 18:
			return black
		case cell == 2:
			return white
		case cell >= 3 && bits&(1<<uint(cell-3)) != 0:
			return white
		}
		return black
	}

	for x := range row {
		v := value(float64(x))
		if o.Noise > 0 {
			v += (rng.Float64()*2 - 1) * o.Noise
		}
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		row[x] = byte(v)
	}
	return row
}

// BlankRow renders a row with no burst at all.
func BlankRow(opts Options) []byte {
	o := opts.withDefaults()
	row := make([]byte, o.Width)
	rng := rand.New(rand.NewSource(o.Seed))
	for x := range row {
		v := float64(o.Black)
		if o.Noise > 0 {
			v += (rng.Float64()*2 - 1) * o.Noise
		}
		if v < 0 {
			v = 0
		}
		row[x] = byte(v)
	}
	return row
}
