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
	"line21/internal/parity"
)

// SCCEncoder rebuilds a Scenarist SCC v1.0 file from the field-one byte
// pair timeline. Parity bits are re-inserted; contiguous runs of data
// frames coalesce into one timecoded line.
type SCCEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type SCCEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultSCCEncoder struct {
	fx.Out
	SCCEncoder CaptionEncoder `group:"encoders"`
}

func NewSCCEncoder(p SCCEncoderParams) ResultSCCEncoder {
	return ResultSCCEncoder{
		SCCEncoder: &SCCEncoder{c: p.C, l: p.L, m: p.M},
	}
}

func (e *SCCEncoder) Match(f entities.Format) bool {
	return f == entities.FormatSCC
}

func (e *SCCEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "Scenarist_SCC V1.0\n\n"); err != nil {
		return fmt.Errorf("scc write: %w", err)
	}

	startFrame, lastFrame := -1, -1
	var pairs []string

	flush := func() error {
		if len(pairs) == 0 {
			return nil
		}
		_, err := fmt.Fprintf(bw, "%s\t", e.m.SCCTimecode(startFrame))
		if err == nil {
			for i, p := range pairs {
				if i > 0 {
					if _, err = fmt.Fprint(bw, " "); err != nil {
						break
					}
				}
				if _, err = fmt.Fprint(bw, p); err != nil {
					break
				}
			}
		}
		if err == nil {
			_, err = fmt.Fprintln(bw)
		}
		pairs = pairs[:0]
		startFrame = -1
		if err != nil {
			return fmt.Errorf("scc write: %w", err)
		}
		return nil
	}

	for ev := range events {
		if ev.Kind != entities.EventBytePair || ev.BytePair.Parity != entities.FieldOne {
			continue
		}
		bp := ev.BytePair
		if bp.Null() || !bp.Valid() {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if startFrame >= 0 && bp.Frame != lastFrame+1 {
			if err := flush(); err != nil {
				return err
			}
		}
		if startFrame < 0 {
			startFrame = bp.Frame
		}
		lastFrame = bp.Frame
		pairs = append(pairs, fmt.Sprintf("%02x%02x",
			parity.WithParity(bp.B1), parity.WithParity(bp.B2)))
	}
	if err := flush(); err != nil {
		return err
	}
	return bw.Flush()
}
