package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line21/internal/entities"
)

func TestParseFormats(t *testing.T) {
	t.Parallel()
	formats, err := entities.ParseFormats("srt, SCC,xds")
	require.NoError(t, err)
	assert.Equal(t, []entities.Format{entities.FormatSRT, entities.FormatSCC, entities.FormatXDS}, formats)

	_, err = entities.ParseFormats("srt,vtt")
	assert.ErrorIs(t, err, entities.ErrUnknownFormat)

	_, err = entities.ParseFormats("")
	assert.ErrorIs(t, err, entities.ErrUnknownFormat)
}

func TestConfigValid(t *testing.T) {
	t.Parallel()
	c := &entities.Config{
		FrameRate:   29.97,
		StartLine:   0,
		LineCount:   10,
		FrameWidth:  720,
		FixedLine:   -1,
		Calibration: entities.DefaultCalibration(),
	}
	assert.NoError(t, c.Valid())

	bad := *c
	bad.FrameRate = 24
	assert.ErrorIs(t, bad.Valid(), entities.ErrUnsupportedFrameRate)

	bad = *c
	bad.LineCount = 0
	assert.ErrorIs(t, bad.Valid(), entities.ErrInvalidLineRange)
}

func TestDropFrame(t *testing.T) {
	t.Parallel()
	assert.True(t, (&entities.Config{FrameRate: 29.97}).DropFrame())
	assert.False(t, (&entities.Config{FrameRate: 25}).DropFrame())
}

func TestLoadCalibration(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cal.toml")
	require.NoError(t, os.WriteFile(path, []byte("luma_threshold = 100.0\nbit_period = 26.5\n"), 0o644))

	cal, err := entities.LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cal.LumaThreshold)
	assert.Equal(t, 26.5, cal.BitPeriod)
	// Unset keys keep their defaults.
	assert.Equal(t, entities.DefaultCalibration().RunInCycles, cal.RunInCycles)
}

func TestLoadCalibrationRejectsBadValues(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cal.toml")
	require.NoError(t, os.WriteFile(path, []byte("luma_threshold = 400.0\n"), 0o644))

	_, err := entities.LoadCalibration(path)
	assert.ErrorIs(t, err, entities.ErrInvalidCalibration)
}

func TestDecodeRequestValid(t *testing.T) {
	t.Parallel()
	req := &entities.DecodeRequest{Input: "a.mpg", Formats: []entities.Format{entities.FormatSRT}}
	assert.NoError(t, req.Valid())

	req = &entities.DecodeRequest{Formats: []entities.Format{entities.FormatSRT}}
	assert.ErrorIs(t, req.Valid(), entities.ErrMissingInput)

	req = &entities.DecodeRequest{
		Input:   "a.mpg",
		Formats: []entities.Format{entities.FormatSRT, entities.FormatSCC},
	}
	assert.ErrorIs(t, req.Valid(), entities.ErrStdoutSingleFormat)
}

func TestScreenRows(t *testing.T) {
	t.Parallel()
	var s entities.Screen
	s.Cells[4][10] = entities.Cell{Char: 'A'}
	s.Cells[4][11] = entities.Cell{Char: 'B', Style: entities.Style{Italics: true}}
	s.Cells[14][0] = entities.Cell{Char: 'C'}

	rows := s.Rows()
	require.Len(t, rows, 2)
	require.Len(t, rows[0].Segments, 2)
	assert.Equal(t, "A", rows[0].Segments[0].Text)
	assert.Equal(t, "B", rows[0].Segments[1].Text)
	assert.True(t, rows[0].Segments[1].Style.Italics)
	assert.Equal(t, "C", rows[1].Plain())
}
