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
	"line21/internal/xds"
)

type XDSEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type XDSEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultXDSEncoder struct {
	fx.Out
	XDSEncoder CaptionEncoder `group:"encoders"`
}

func NewXDSEncoder(p XDSEncoderParams) ResultXDSEncoder {
	return ResultXDSEncoder{
		XDSEncoder: &XDSEncoder{c: p.C, l: p.L, m: p.M},
	}
}

func (e *XDSEncoder) Match(f entities.Format) bool {
	return f == entities.FormatXDS
}

func (e *XDSEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for ev := range events {
		if ev.Kind != entities.EventXDS {
			continue
		}
		p := ev.XDS
		validity := "ok"
		detail := xds.Describe(*p)
		if !p.Valid {
			validity = "bad"
			detail = fmt.Sprintf("%s [% 02x]", detail, p.Payload)
		}
		if _, err := fmt.Fprintf(bw, "%s %02x/%02x %s %s\n",
			e.m.SRTTimecode(p.PTS), p.Class, p.Type, validity, detail); err != nil {
			return fmt.Errorf("xds write: %w", err)
		}
	}
	return bw.Flush()
}
