package assembler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"line21/internal/assembler"
	"line21/internal/entities"
)

func screenWith(text string) entities.Screen {
	var s entities.Screen
	for i, r := range text {
		s.Cells[14][i] = entities.Cell{Char: r}
	}
	return s
}

func change(text string, at time.Duration) entities.ScreenChange {
	return entities.ScreenChange{
		Channel: entities.CC1,
		Mode:    entities.ModePopOn,
		Content: screenWith(text),
		PTS:     at,
	}
}

func newAssembler() (*assembler.Assembler, *[]entities.Cue, *entities.SessionStats) {
	var cues []entities.Cue
	stats := &entities.SessionStats{}
	a := assembler.New(stats, func(c entities.Cue) { cues = append(cues, c) }, zap.NewNop().Sugar())
	return a, &cues, stats
}

func TestCueLifecycle(t *testing.T) {
	t.Parallel()
	a, cues, stats := newAssembler()

	a.OnScreenChange(change("HELLO", time.Second))
	a.OnScreenChange(change("WORLD", 3*time.Second))
	a.OnScreenChange(entities.ScreenChange{Channel: entities.CC1, PTS: 5 * time.Second})

	require.Len(t, *cues, 2)
	first, second := (*cues)[0], (*cues)[1]
	assert.Equal(t, "HELLO", first.PlainText())
	assert.Equal(t, time.Second, first.Start)
	assert.Equal(t, 3*time.Second, first.End)
	assert.Equal(t, "WORLD", second.PlainText())
	assert.Equal(t, 3*time.Second, second.Start)
	assert.Equal(t, 5*time.Second, second.End)
	assert.Equal(t, 2, stats.CuesEmitted)
}

func TestIdenticalContentKeepsCueOpen(t *testing.T) {
	t.Parallel()
	a, cues, _ := newAssembler()

	a.OnScreenChange(change("SAME", time.Second))
	a.OnScreenChange(change("SAME", 2*time.Second))
	a.Flush(4 * time.Second)

	require.Len(t, *cues, 1)
	assert.Equal(t, time.Second, (*cues)[0].Start)
	assert.Equal(t, 4*time.Second, (*cues)[0].End)
}

func TestFlushClosesOpenCues(t *testing.T) {
	t.Parallel()
	a, cues, _ := newAssembler()

	a.OnScreenChange(change("OPEN", 2*time.Second))
	a.Flush(6 * time.Second)

	require.Len(t, *cues, 1)
	assert.Equal(t, 6*time.Second, (*cues)[0].End)
}

func TestZeroDurationCueDropped(t *testing.T) {
	t.Parallel()
	a, cues, _ := newAssembler()

	a.OnScreenChange(change("GONE", time.Second))
	a.OnScreenChange(change("NEXT", time.Second))
	a.Flush(2 * time.Second)

	require.Len(t, *cues, 1)
	assert.Equal(t, "NEXT", (*cues)[0].PlainText())
}

func TestChannelsAreIndependent(t *testing.T) {
	t.Parallel()
	a, cues, _ := newAssembler()

	a.OnScreenChange(change("ONE", time.Second))
	cc3 := change("THREE", 2*time.Second)
	cc3.Channel = entities.CC3
	a.OnScreenChange(cc3)
	a.Flush(5 * time.Second)

	require.Len(t, *cues, 2)
	channels := map[entities.ChannelID]bool{}
	for _, c := range *cues {
		channels[c.Channel] = true
		assert.Equal(t, 5*time.Second, c.End)
	}
	assert.True(t, channels[entities.CC1])
	assert.True(t, channels[entities.CC3])
}

func TestFlushOrderIsDeterministic(t *testing.T) {
	t.Parallel()
	a, cues, _ := newAssembler()

	for _, ch := range []entities.ChannelID{entities.CC4, entities.CC1, entities.CC3, entities.CC2} {
		sc := change("TEXT "+ch.String(), time.Second)
		sc.Channel = ch
		a.OnScreenChange(sc)
	}
	a.Flush(5 * time.Second)

	require.Len(t, *cues, 4)
	want := []entities.ChannelID{entities.CC1, entities.CC2, entities.CC3, entities.CC4}
	for i, c := range *cues {
		assert.Equal(t, want[i], c.Channel)
	}
}
