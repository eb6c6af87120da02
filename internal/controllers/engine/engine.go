// Package engine owns the decode session: it selects a producer and the
// requested encoders, drives the field pipeline and fans finalized events
// out to the encoders.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"line21/internal/assembler"
	"line21/internal/bitsync"
	"line21/internal/cea608"
	"line21/internal/controllers/encoders"
	"line21/internal/controllers/producers"
	"line21/internal/entities"
	"line21/internal/mapper"
	"line21/internal/parity"
	"line21/internal/sampler"
)

type DecodeEngine interface {
	Run(ctx context.Context) error
}

type DecodeEngineParams struct {
	fx.In
	C       *entities.Config
	L       *zap.SugaredLogger
	M       *mapper.Mapper
	Stats   *entities.SessionStats
	Session entities.SessionID

	Producers []producers.FieldProducer `group:"producers"`
	Encoders  []encoders.CaptionEncoder `group:"encoders"`
}

type DecodeEngineController struct {
	p DecodeEngineParams
}

func NewDecodeEngineController(p DecodeEngineParams) *DecodeEngineController {
	return &DecodeEngineController{p}
}

func (c *DecodeEngineController) EngineFor(req *entities.DecodeRequest) (DecodeEngine, error) {
	producer := c.selectProducerFor(req)
	if producer == nil {
		return nil, fmt.Errorf("request %v: not fulfilled error %w", req, entities.ErrMissingProducer)
	}

	sinks := make([]*sink, 0, len(req.Formats))
	for _, f := range req.Formats {
		enc := c.selectEncoderFor(f)
		if enc == nil {
			return nil, fmt.Errorf("request %v: format %s: not fulfilled error %w", req, f, entities.ErrMissingEncoder)
		}
		sinks = append(sinks, &sink{format: f, enc: enc})
	}

	return &decodeEngine{
		c:        c.p.C,
		l:        c.p.L,
		m:        c.p.M,
		stats:    c.p.Stats,
		session:  c.p.Session,
		producer: producer,
		sinks:    sinks,
		req:      req,
	}, nil
}

func (c *DecodeEngineController) selectProducerFor(req *entities.DecodeRequest) producers.FieldProducer {
	for _, p := range c.p.Producers {
		if p.Match(req) {
			return p
		}
	}
	return nil
}

func (c *DecodeEngineController) selectEncoderFor(f entities.Format) encoders.CaptionEncoder {
	for _, e := range c.p.Encoders {
		if e.Match(f) {
			return e
		}
	}
	return nil
}

type sink struct {
	format entities.Format
	enc    encoders.CaptionEncoder
	ch     chan entities.DecodeEvent
}

type decodeEngine struct {
	c        *entities.Config
	l        *zap.SugaredLogger
	m        *mapper.Mapper
	stats    *entities.SessionStats
	session  entities.SessionID
	producer producers.FieldProducer
	sinks    []*sink
	req      *entities.DecodeRequest
}

func (e *decodeEngine) Run(ctx context.Context) error {
	writers := make([]io.Writer, len(e.sinks))
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for i, s := range e.sinks {
		if e.req.OutputBase == "" {
			writers[i] = os.Stdout
			continue
		}
		name := e.req.OutputBase + "." + e.m.Extension(s.format)
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create output %s: %w", name, err)
		}
		e.l.Infow("writing output", "format", s.format, "file", name)
		files = append(files, f)
		writers[i] = f
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range e.sinks {
		s.ch = make(chan entities.DecodeEvent, 256)
		s, w := s, writers[i]
		g.Go(func() error {
			return s.enc.Encode(gctx, s.ch, w)
		})
	}

	g.Go(func() error {
		defer func() {
			for _, s := range e.sinks {
				close(s.ch)
			}
		}()
		return e.pipeline(gctx)
	})

	return g.Wait()
}

// pipeline runs the field decode chain one field at a time and broadcasts
// the resulting events. If the producer dies mid-stream, open cues are
// flushed at the last processed timestamp so the outputs written so far
// stay valid, and the producer's error is then returned as the session's
// fatal status.
func (e *decodeEngine) pipeline(ctx context.Context) error {
	e.l.Infow("decode session starting", "session", e.session, "request", e.req.String())

	var pending []entities.DecodeEvent
	var lastPTS = e.m.FramePTS(0)
	lastFrame := 0

	sync := bitsync.NewSynchronizer(e.c.Calibration, e.l)
	smp := sampler.NewSampler(e.c, e.m, sync, e.l)
	asm := assembler.New(e.stats, func(cue entities.Cue) {
		c := cue
		pending = append(pending, entities.DecodeEvent{
			Kind:    entities.EventCue,
			Frame:   lastFrame,
			PTS:     c.End,
			Cue:     &c,
			Channel: c.Channel,
		})
	}, e.l)
	dec := cea608.NewDecoder(e.stats, cea608.Handlers{
		ScreenChange: asm.OnScreenChange,
		XDS: func(p entities.XDSPacket) {
			pkt := p
			pending = append(pending, entities.DecodeEvent{
				Kind:  entities.EventXDS,
				Frame: pkt.Frame,
				PTS:   pkt.PTS,
				XDS:   &pkt,
			})
		},
		Text: func(ch entities.ChannelID, text string, frame int, pts time.Duration) {
			pending = append(pending, entities.DecodeEvent{
				Kind:    entities.EventText,
				Frame:   frame,
				PTS:     pts,
				Channel: ch,
				Text:    text,
			})
		},
		Trace: func(frame int, pts time.Duration, msg string) {
			pending = append(pending, entities.DecodeEvent{
				Kind:  entities.EventTrace,
				Frame: frame,
				PTS:   pts,
				Trace: msg,
			})
		},
	}, e.l)

	flush := func() error {
		for _, ev := range pending {
			for _, s := range e.sinks {
				select {
				case s.ch <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		pending = pending[:0]
		return nil
	}

	err := e.producer.Produce(ctx, e.req, func(strip entities.FrameStrip) error {
		e.stats.FramesProcessed++
		lastFrame = strip.Frame

		fields := smp.Fields(strip)
		if len(fields) == 0 {
			e.stats.BlankFrames++
			pending = append(pending, entities.DecodeEvent{
				Kind:  entities.EventNoSignal,
				Frame: strip.Frame,
				PTS:   strip.PTS,
			})
			return flush()
		}

		for _, fs := range fields {
			raw1, raw2, outcome := sync.Decode(fs.Samples)
			if outcome != entities.SyncOK {
				e.stats.UnsyncedFields++
				pending = append(pending, entities.DecodeEvent{
					Kind:  entities.EventTrace,
					Frame: fs.Frame,
					PTS:   fs.PTS,
					Trace: fmt.Sprintf("field %d row %d sync %s", fs.Parity, fs.Row, outcome),
				})
				continue
			}
			b1, b2, v1, v2 := parity.Decode(raw1, raw2)
			if !v1 {
				e.stats.ParityErrors++
			}
			if !v2 {
				e.stats.ParityErrors++
			}
			bp := entities.BytePair{
				Frame:  fs.Frame,
				Parity: fs.Parity,
				PTS:    fs.PTS,
				B1:     b1,
				B2:     b2,
				Valid1: v1,
				Valid2: v2,
			}
			e.stats.FieldsWithData++
			p := bp
			pending = append(pending, entities.DecodeEvent{
				Kind:     entities.EventBytePair,
				Frame:    bp.Frame,
				PTS:      bp.PTS,
				BytePair: &p,
				Label:    cea608.Label(b1, b2),
			})
			dec.Consume(bp)
			lastPTS = fs.PTS
		}
		return flush()
	})

	dec.Flush()
	asm.Flush(lastPTS + e.m.FramePTS(1))
	if ferr := flush(); ferr != nil && err == nil {
		err = ferr
	}

	// A caption-less stream is a normal decode: blank fields count. Only a
	// producer that dies before yielding a single frame is fatal on its own.
	if e.stats.FramesProcessed == 0 {
		if err != nil {
			return err
		}
		return entities.ErrNoFramesProcessed
	}
	if err != nil {
		// Flushed above, so the partial outputs stay valid, but an
		// abnormal mid-stream end is still a fatal status.
		if !errors.Is(err, context.Canceled) {
			e.l.Errorw("producer failed mid-stream, outputs flushed", "session", e.session, "error", err)
		}
		return err
	}
	e.l.Infow("decode session done",
		"session", e.session,
		"frames", e.stats.FramesProcessed,
		"fields", e.stats.FieldsWithData,
		"cues", e.stats.CuesEmitted)
	return nil
}
