package producers_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"line21/internal/controllers/producers"
	"line21/internal/entities"
	"line21/internal/mapper"
)

func testConfig() *entities.Config {
	return &entities.Config{
		FrameRate:   29.97,
		FrameWidth:  720,
		LineCount:   2,
		StartLine:   21,
		FFmpegPath:  "ffmpeg",
		FixedLine:   -1,
		Calibration: entities.DefaultCalibration(),
	}
}

func TestProducerRouting(t *testing.T) {
	t.Parallel()
	c := testConfig()
	l := zap.NewNop().Sugar()
	m := mapper.NewMapper(c, l)
	ff := producers.NewFFmpegProducer(producers.FFmpegProducerParams{C: c, L: l, M: m}).FFmpegProducer
	raw := producers.NewRawStripProducer(producers.RawStripProducerParams{C: c, L: l, M: m}).RawStripProducer

	video := &entities.DecodeRequest{Input: "capture.mpg"}
	strip := &entities.DecodeRequest{Input: "capture.gray"}

	assert.True(t, ff.Match(video))
	assert.False(t, ff.Match(strip))
	assert.False(t, raw.Match(video))
	assert.True(t, raw.Match(strip))
}

func TestRawStripProducerReadsFrames(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.FrameWidth = 8
	l := zap.NewNop().Sugar()
	m := mapper.NewMapper(c, l)
	raw := producers.NewRawStripProducer(producers.RawStripProducerParams{C: c, L: l, M: m}).RawStripProducer

	// Two frames of 8x2 strips with recognizable per-frame fill.
	data := make([]byte, 0, 32)
	for frame := byte(1); frame <= 2; frame++ {
		for i := 0; i < 16; i++ {
			data = append(data, frame*0x10)
		}
	}
	path := filepath.Join(t.TempDir(), "capture.gray")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var strips []entities.FrameStrip
	err := raw.Produce(context.Background(), &entities.DecodeRequest{Input: path},
		func(fs entities.FrameStrip) error {
			strips = append(strips, fs)
			return nil
		})
	require.NoError(t, err)

	require.Len(t, strips, 2)
	assert.Equal(t, 0, strips[0].Frame)
	assert.Equal(t, 1, strips[1].Frame)
	assert.Equal(t, m.FramePTS(1), strips[1].PTS)
	require.Len(t, strips[0].Rows, 2)
	assert.Equal(t, byte(0x10), strips[0].Rows[1][3])
	assert.Equal(t, byte(0x20), strips[1].Rows[0][0])
}

func TestRawStripProducerShortFinalFrame(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.FrameWidth = 8
	l := zap.NewNop().Sugar()
	m := mapper.NewMapper(c, l)
	raw := producers.NewRawStripProducer(producers.RawStripProducerParams{C: c, L: l, M: m}).RawStripProducer

	// One full 16-byte frame plus a torn 5-byte tail.
	data := make([]byte, 21)
	path := filepath.Join(t.TempDir(), "capture.gray")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	frames := 0
	err := raw.Produce(context.Background(), &entities.DecodeRequest{Input: path},
		func(entities.FrameStrip) error {
			frames++
			return nil
		})
	assert.ErrorIs(t, err, entities.ErrShortFrame)
	assert.Equal(t, 1, frames)
}

func TestFFmpegProducerReadsStrips(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.FrameWidth = 8
	l := zap.NewNop().Sugar()
	m := mapper.NewMapper(c, l)

	// A stand-in ffmpeg that ignores its arguments and emits two strips
	// of zeros on stdout, enough to drive the read loop end to end.
	script := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(script,
		[]byte("#!/bin/sh\nhead -c 32 /dev/zero\n"), 0o755))
	c.FFmpegPath = script

	ff := producers.NewFFmpegProducer(producers.FFmpegProducerParams{C: c, L: l, M: m}).FFmpegProducer

	var strips []entities.FrameStrip
	err := ff.Produce(context.Background(), &entities.DecodeRequest{Input: "capture.mpg"},
		func(fs entities.FrameStrip) error {
			strips = append(strips, fs)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, strips, 2)
	assert.Equal(t, 1, strips[1].Frame)
	require.Len(t, strips[0].Rows, 2)
	assert.Len(t, strips[0].Rows[0], 8)
}

func TestFFmpegProducerMissingBinary(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.FFmpegPath = "no-such-ffmpeg-binary"
	l := zap.NewNop().Sugar()
	m := mapper.NewMapper(c, l)
	ff := producers.NewFFmpegProducer(producers.FFmpegProducerParams{C: c, L: l, M: m}).FFmpegProducer

	err := ff.Produce(context.Background(), &entities.DecodeRequest{Input: "a.mpg"},
		func(entities.FrameStrip) error { return nil })
	assert.ErrorIs(t, err, entities.ErrFFmpegNotFound)
}
