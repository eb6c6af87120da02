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

type SRTEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type SRTEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultSRTEncoder struct {
	fx.Out
	SRTEncoder CaptionEncoder `group:"encoders"`
}

func NewSRTEncoder(p SRTEncoderParams) ResultSRTEncoder {
	return ResultSRTEncoder{
		SRTEncoder: &SRTEncoder{c: p.C, l: p.L, m: p.M},
	}
}

func (e *SRTEncoder) Match(f entities.Format) bool {
	return f == entities.FormatSRT
}

func (e *SRTEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	n := 0
	for ev := range events {
		if ev.Kind != entities.EventCue {
			continue
		}
		n++
		_, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			n,
			e.m.SRTTimecode(ev.Cue.Start),
			e.m.SRTTimecode(ev.Cue.End),
			ev.Cue.PlainText())
		if err != nil {
			return fmt.Errorf("srt write: %w", err)
		}
	}
	e.l.Debugw("srt encode done", "cues", n)
	return bw.Flush()
}
