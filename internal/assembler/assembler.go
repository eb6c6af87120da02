// Package assembler turns the per-channel stream of screen changes into
// timed cues: a cue opens when a channel shows content and closes when
// that content changes or the stream ends.
package assembler

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"line21/internal/entities"
)

type Assembler struct {
	l     *zap.SugaredLogger
	stats *entities.SessionStats
	emit  func(entities.Cue)
	open  map[entities.ChannelID]*openCue
}

type openCue struct {
	mode  entities.CaptionMode
	start time.Duration
	rows  []entities.StyledRow
	// key is the rendered content, used to keep a cue open across screen
	// changes that leave the visible text identical.
	key string
}

func New(stats *entities.SessionStats, emit func(entities.Cue), l *zap.SugaredLogger) *Assembler {
	return &Assembler{
		l:     l,
		stats: stats,
		emit:  emit,
		open:  map[entities.ChannelID]*openCue{},
	}
}

func (a *Assembler) OnScreenChange(sc entities.ScreenChange) {
	rows := sc.Content.Rows()
	key := contentKey(rows)

	cur := a.open[sc.Channel]
	if cur != nil {
		if key == cur.key {
			return
		}
		a.close(sc.Channel, cur, sc.PTS)
	}
	if len(rows) == 0 {
		return
	}
	a.open[sc.Channel] = &openCue{
		mode:  sc.Mode,
		start: sc.PTS,
		rows:  rows,
		key:   key,
	}
}

// Flush closes every open cue at the given end-of-stream timestamp, in
// channel order so outputs are reproducible across runs.
func (a *Assembler) Flush(end time.Duration) {
	channels := make([]entities.ChannelID, 0, len(a.open))
	for ch := range a.open {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	for _, ch := range channels {
		a.close(ch, a.open[ch], end)
	}
}

func (a *Assembler) close(ch entities.ChannelID, cur *openCue, end time.Duration) {
	delete(a.open, ch)
	if end <= cur.start {
		// Content replaced within the same field; nothing was visible
		// long enough to time.
		return
	}
	a.stats.CuesEmitted++
	a.emit(entities.Cue{
		Channel: ch,
		Mode:    cur.mode,
		Start:   cur.start,
		End:     end,
		Rows:    cur.rows,
	})
}

func contentKey(rows []entities.StyledRow) string {
	return fmt.Sprintf("%v", rows)
}
