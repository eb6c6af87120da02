package encoders

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/entities"
	"line21/internal/mapper"
)

// DebugEncoder dumps the state-machine trace: every control code decision,
// buffer flip and screen change, plus finalized cues, under a session
// header.
type DebugEncoder struct {
	c       *entities.Config
	l       *zap.SugaredLogger
	m       *mapper.Mapper
	session entities.SessionID
}

type DebugEncoderParams struct {
	fx.In
	C       *entities.Config
	L       *zap.SugaredLogger
	M       *mapper.Mapper
	Session entities.SessionID
}

type ResultDebugEncoder struct {
	fx.Out
	DebugEncoder CaptionEncoder `group:"encoders"`
}

func NewDebugEncoder(p DebugEncoderParams) ResultDebugEncoder {
	return ResultDebugEncoder{
		DebugEncoder: &DebugEncoder{c: p.C, l: p.L, m: p.M, session: p.Session},
	}
}

func (e *DebugEncoder) Match(f entities.Format) bool {
	return f == entities.FormatDebug
}

func (e *DebugEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "session %s\n", e.session); err != nil {
		return fmt.Errorf("debug write: %w", err)
	}
	for ev := range events {
		var err error
		switch ev.Kind {
		case entities.EventTrace:
			_, err = fmt.Fprintf(bw, "%6d %s %s\n", ev.Frame, e.m.SRTTimecode(ev.PTS), ev.Trace)
		case entities.EventNoSignal:
			_, err = fmt.Fprintf(bw, "%6d %s no signal\n", ev.Frame, e.m.SRTTimecode(ev.PTS))
		case entities.EventCue:
			_, err = fmt.Fprintf(bw, "%6d %s cue %s %s %s --> %s %q\n",
				ev.Frame, e.m.SRTTimecode(ev.PTS),
				ev.Cue.Channel, ev.Cue.Mode,
				e.m.SRTTimecode(ev.Cue.Start), e.m.SRTTimecode(ev.Cue.End),
				ev.Cue.PlainText())
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("debug write: %w", err)
		}
	}
	return bw.Flush()
}
