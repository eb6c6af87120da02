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

// TextEncoder streams Text-mode service characters (T1-T4) as plain text.
// Caption-channel traffic is not part of this format.
type TextEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type TextEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
}

type ResultTextEncoder struct {
	fx.Out
	TextEncoder CaptionEncoder `group:"encoders"`
}

func NewTextEncoder(p TextEncoderParams) ResultTextEncoder {
	return ResultTextEncoder{
		TextEncoder: &TextEncoder{c: p.C, l: p.L},
	}
}

func (e *TextEncoder) Match(f entities.Format) bool {
	return f == entities.FormatText
}

func (e *TextEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for ev := range events {
		if ev.Kind != entities.EventText || !ev.Channel.Text() {
			continue
		}
		if _, err := bw.WriteString(ev.Text); err != nil {
			return fmt.Errorf("text write: %w", err)
		}
	}
	return bw.Flush()
}
