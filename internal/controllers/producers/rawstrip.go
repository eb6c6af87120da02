package producers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/entities"
	"line21/internal/mapper"
)

// RawStripProducer reads pre-extracted strips from a .gray file: raw 8-bit
// grayscale, width*lines bytes per frame, no header. It exists so decode
// runs can skip ffmpeg when the strip extraction already happened.
type RawStripProducer struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type RawStripProducerParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultRawStripProducer struct {
	fx.Out
	RawStripProducer FieldProducer `group:"producers"`
}

func NewRawStripProducer(p RawStripProducerParams) ResultRawStripProducer {
	return ResultRawStripProducer{
		RawStripProducer: &RawStripProducer{c: p.C, l: p.L, m: p.M},
	}
}

func (p *RawStripProducer) Match(req *entities.DecodeRequest) bool {
	return strings.HasSuffix(req.Input, ".gray")
}

func (p *RawStripProducer) Produce(ctx context.Context, req *entities.DecodeRequest, emit func(entities.FrameStrip) error) error {
	f, err := os.Open(req.Input)
	if err != nil {
		return fmt.Errorf("open strip file: %w", err)
	}
	defer f.Close()

	stripSize := p.c.FrameWidth * p.c.LineCount
	buf := make([]byte, stripSize)
	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := io.ReadFull(f, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: frame %d", entities.ErrShortFrame, frame)
		}
		if err != nil {
			return fmt.Errorf("read strip file: %w", err)
		}
		rows := make([][]byte, p.c.LineCount)
		for i := range rows {
			rows[i] = append([]byte(nil), buf[i*p.c.FrameWidth:(i+1)*p.c.FrameWidth]...)
		}
		if err := emit(entities.FrameStrip{
			Frame: frame,
			PTS:   p.m.FramePTS(frame),
			Width: p.c.FrameWidth,
			Rows:  rows,
		}); err != nil {
			return err
		}
	}
}
