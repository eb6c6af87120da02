// Package sampler locates the caption data bursts within a frame's
// scanline strip and hands each one downstream as a field waveform. A
// frame with no burst is normal, not an error.
package sampler

import (
	"go.uber.org/zap"

	"line21/internal/bitsync"
	"line21/internal/entities"
	"line21/internal/mapper"
)

type Sampler struct {
	c    *entities.Config
	l    *zap.SugaredLogger
	m    *mapper.Mapper
	sync *bitsync.Synchronizer

	lastRow int
}

func NewSampler(c *entities.Config, m *mapper.Mapper, sync *bitsync.Synchronizer, l *zap.SugaredLogger) *Sampler {
	return &Sampler{c: c, l: l, m: m, sync: sync}
}

// Fields scans the strip rows for data bursts. The first row carrying a
// burst becomes field one, the second field two; anything further is
// ignored. The burst row drifts between sources but not between adjacent
// frames, so the search resumes near the last hit and decays back toward
// the top.
func (s *Sampler) Fields(strip entities.FrameStrip) []entities.FieldSample {
	if len(strip.Rows) == 0 {
		return nil
	}

	if s.lastRow > 0 {
		s.lastRow--
	}
	if s.lastRow >= len(strip.Rows) {
		s.lastRow = 0
	}

	target := s.lastRow
	if s.c.FixedLine >= 0 {
		target = s.c.FixedLine
		if target >= len(strip.Rows) {
			return nil
		}
	}

	start := 0
	if _, ok := s.sync.DetectRunIn(strip.Rows[target]); ok {
		start = target
	} else if s.c.FixedLine >= 0 {
		return nil
	}

	var fields []entities.FieldSample
	for row := start; row < len(strip.Rows); row++ {
		if _, ok := s.sync.DetectRunIn(strip.Rows[row]); !ok {
			continue
		}
		s.lastRow = row
		parity := entities.FieldParity(len(fields) + 1)
		fields = append(fields, entities.FieldSample{
			Frame:   strip.Frame,
			Parity:  parity,
			PTS:     s.m.FieldPTS(strip.PTS, parity),
			Row:     row,
			Samples: strip.Rows[row],
		})
		if len(fields) == 2 {
			break
		}
		if s.c.FixedLine >= 0 {
			break
		}
	}
	return fields
}
