// Package mapper converts between pipeline domains: frame counters to
// timestamps, timestamps to delivery-format timecodes, formats to file
// extensions.
package mapper

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"line21/internal/entities"
)

type Mapper struct {
	c *entities.Config
	l *zap.SugaredLogger
}

func NewMapper(c *entities.Config, l *zap.SugaredLogger) *Mapper {
	return &Mapper{c: c, l: l}
}

// FramePTS is the presentation time of a frame's first field.
func (m *Mapper) FramePTS(frame int) time.Duration {
	return time.Duration(float64(frame) / m.c.FrameRate * float64(time.Second))
}

// FieldPTS offsets a frame timestamp for the second field of an interlaced
// frame.
func (m *Mapper) FieldPTS(framePTS time.Duration, parity entities.FieldParity) time.Duration {
	if parity == entities.FieldTwo {
		return framePTS + time.Duration(float64(time.Second)/(2*m.c.FrameRate))
	}
	return framePTS
}

// SRTTimecode renders `HH:MM:SS,mmm`.
func (m *Mapper) SRTTimecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3600000
	ms -= h * 3600000
	min := ms / 60000
	ms -= min * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, min, s, ms)
}

// SCCTimecode renders a Scenarist timecode for a frame counter: NTSC
// drop-frame `HH:MM:SS;FF` at 29.97, non-drop `HH:MM:SS:FF` at 25.
func (m *Mapper) SCCTimecode(frame int) string {
	if m.c.DropFrame() {
		// Re-insert the two frame numbers dropped every minute except
		// each tenth minute so the timecode tracks wall clock.
		fn := frame + 18*(frame/17982)
		if rem := frame % 17982; rem > 2 {
			fn += 2 * ((rem - 2) / 1798)
		}
		return fmt.Sprintf("%02d:%02d:%02d;%02d",
			fn/30/60/60%24, fn/30/60%60, fn/30%60, fn%30)
	}
	fps := int(m.c.FrameRate)
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		frame/fps/60/60%24, frame/fps/60%60, frame/fps%60, frame%fps)
}

// Extension is the output file extension for a format.
func (m *Mapper) Extension(f entities.Format) string {
	switch f {
	case entities.FormatText:
		return "txt"
	case entities.FormatRaw:
		return "captions.raw"
	case entities.FormatDebug:
		return "captions.debug"
	default:
		return string(f)
	}
}
