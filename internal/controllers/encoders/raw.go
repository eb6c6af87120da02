package encoders

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/entities"
)

// RawEncoder dumps every synchronized byte pair, one line per field, with
// parity verdicts and the decoded label.
type RawEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type RawEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
}

type ResultRawEncoder struct {
	fx.Out
	RawEncoder CaptionEncoder `group:"encoders"`
}

func NewRawEncoder(p RawEncoderParams) ResultRawEncoder {
	return ResultRawEncoder{
		RawEncoder: &RawEncoder{c: p.C, l: p.L},
	}
}

func (e *RawEncoder) Match(f entities.Format) bool {
	return f == entities.FormatRaw
}

func (e *RawEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for ev := range events {
		if ev.Kind != entities.EventBytePair {
			continue
		}
		bp := ev.BytePair
		if _, err := fmt.Fprintf(bw, "%6d %d %02x %02x %s %s %s\n",
			bp.Frame, bp.Parity, bp.B1, bp.B2,
			parityMark(bp.Valid1), parityMark(bp.Valid2), ev.Label); err != nil {
			return fmt.Errorf("raw write: %w", err)
		}
	}
	return bw.Flush()
}

func parityMark(ok bool) string {
	if ok {
		return "ok"
	}
	return "ERR"
}
