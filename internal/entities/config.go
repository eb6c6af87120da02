package entities

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Format names an output encoder.
type Format string

const (
	FormatSRT   Format = "srt"
	FormatSCC   Format = "scc"
	FormatHTML  Format = "html"
	FormatText  Format = "text"
	FormatXDS   Format = "xds"
	FormatRaw   Format = "raw"
	FormatDebug Format = "debug"
)

// ParseFormats splits a comma-separated format list and validates every
// entry.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.TrimSpace(strings.ToLower(part)))
		switch f {
		case FormatSRT, FormatSCC, FormatHTML, FormatText, FormatXDS, FormatRaw, FormatDebug:
			formats = append(formats, f)
		case "":
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, part)
		}
	}
	if len(formats) == 0 {
		return nil, ErrUnknownFormat
	}
	return formats, nil
}

// Config holds process-wide settings. Populated by envconfig under the
// LINE21 prefix, then overridden by CLI flags.
type Config struct {
	FFmpegPath     string  `default:"ffmpeg"`
	FFmpegPreScale string  ``
	FrameRate      float64 `required:"true" default:"29.97"`
	Deinterlaced   bool    ``
	StartLine      int     `required:"true" default:"0"`
	LineCount      int     `required:"true" default:"10"`
	// FrameWidth is the sample count per scanline the producer scales to.
	// The calibration defaults assume 720.
	FrameWidth int `required:"true" default:"720"`
	// FixedLine pins the burst search to one strip row. Negative scans.
	FixedLine int `default:"-1"`

	Calibration Calibration `ignored:"true"`
}

// Valid reports configuration errors before any decoding starts.
func (c *Config) Valid() error {
	if !supportedFrameRate(c.FrameRate) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFrameRate, c.FrameRate)
	}
	if c.StartLine < 0 || c.LineCount < 1 {
		return fmt.Errorf("%w: start %d count %d", ErrInvalidLineRange, c.StartLine, c.LineCount)
	}
	if c.FrameWidth < 64 {
		return fmt.Errorf("%w: width %d", ErrInvalidLineRange, c.FrameWidth)
	}
	return c.Calibration.Valid()
}

// DropFrame reports whether timecodes use NTSC drop-frame counting.
func (c *Config) DropFrame() bool {
	return math.Abs(c.FrameRate-29.97) < 0.01
}

func supportedFrameRate(fps float64) bool {
	return math.Abs(fps-29.97) < 0.01 || math.Abs(fps-25) < 0.01
}

// Calibration holds the acquisition-dependent bit synchronization tuning.
// The defaults match a 720-sample line digitized from a clean NTSC source;
// noisier captures can override them from a TOML profile.
type Calibration struct {
	// LumaThreshold separates a high bit from a low bit. The standard puts
	// the data white level at 50 IRE; 80 leaves headroom for AGC drift.
	LumaThreshold float64 `toml:"luma_threshold"`
	// BitPeriod is the nominal samples-per-bit at the configured width.
	BitPeriod float64 `toml:"bit_period"`
	// RunInScanMin/Max bound the horizontal offsets searched for the clock
	// run-in, in samples relative to the nominal burst position.
	RunInScanMin int `toml:"run_in_scan_min"`
	RunInScanMax int `toml:"run_in_scan_max"`
	// RunInCycles is how many run-in cycles the burst carries.
	RunInCycles int `toml:"run_in_cycles"`
	// MinRunInCycles is how many consecutive cycles must clear the
	// threshold for the field to count as synchronized.
	MinRunInCycles int `toml:"min_run_in_cycles"`
	// DataOffsetPeriods is the distance from the first run-in rising edge
	// to the center of the first data bit, in bit periods.
	DataOffsetPeriods float64 `toml:"data_offset_periods"`
	// BitSampleWidth is the majority-vote window per bit, in samples.
	// Must be odd.
	BitSampleWidth int `toml:"bit_sample_width"`
	// PeriodTolerance is the accepted relative deviation of the measured
	// bit period from nominal before falling back to the nominal value.
	PeriodTolerance float64 `toml:"period_tolerance"`
}

// DefaultCalibration returns the tuning for a 720-sample line.
func DefaultCalibration() Calibration {
	return Calibration{
		LumaThreshold:     80,
		BitPeriod:         27,
		RunInScanMin:      -13,
		RunInScanMax:      30,
		RunInCycles:       7,
		MinRunInCycles:    7,
		DataOffsetPeriods: 9.82,
		BitSampleWidth:    3,
		PeriodTolerance:   0.06,
	}
}

// Valid reports calibration errors.
func (c *Calibration) Valid() error {
	switch {
	case c.LumaThreshold <= 0 || c.LumaThreshold >= 255:
		return fmt.Errorf("%w: luma_threshold %v", ErrInvalidCalibration, c.LumaThreshold)
	case c.BitPeriod < 2:
		return fmt.Errorf("%w: bit_period %v", ErrInvalidCalibration, c.BitPeriod)
	case c.RunInScanMin > c.RunInScanMax:
		return fmt.Errorf("%w: scan range [%d,%d]", ErrInvalidCalibration, c.RunInScanMin, c.RunInScanMax)
	case c.RunInCycles < 3 || c.MinRunInCycles < 3 || c.MinRunInCycles > c.RunInCycles:
		return fmt.Errorf("%w: run-in cycles %d/%d", ErrInvalidCalibration, c.MinRunInCycles, c.RunInCycles)
	case c.BitSampleWidth < 1 || c.BitSampleWidth%2 == 0:
		return fmt.Errorf("%w: bit_sample_width %d", ErrInvalidCalibration, c.BitSampleWidth)
	case c.PeriodTolerance < 0 || c.PeriodTolerance > 0.5:
		return fmt.Errorf("%w: period_tolerance %v", ErrInvalidCalibration, c.PeriodTolerance)
	}
	return nil
}

// LoadCalibration reads a TOML profile on top of the defaults.
func LoadCalibration(path string) (Calibration, error) {
	cal := DefaultCalibration()
	data, err := os.ReadFile(path)
	if err != nil {
		return cal, err
	}
	if err := toml.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("calibration %s: %w", path, err)
	}
	return cal, cal.Valid()
}
