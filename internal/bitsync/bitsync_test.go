package bitsync_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"line21/internal/bitsync"
	"line21/internal/entities"
	"line21/internal/parity"
	"line21/internal/testsignal"
)

func newSync() *bitsync.Synchronizer {
	return bitsync.NewSynchronizer(entities.DefaultCalibration(), zap.NewNop().Sugar())
}

func decodeRow(t *testing.T, s *bitsync.Synchronizer, row []byte) (byte, byte) {
	t.Helper()
	raw1, raw2, outcome := s.Decode(row)
	require.Equal(t, entities.SyncOK, outcome)
	b1, v1 := parity.Check(raw1)
	b2, v2 := parity.Check(raw2)
	require.True(t, v1)
	require.True(t, v2)
	return b1, b2
}

func TestDecodeCleanRow(t *testing.T) {
	t.Parallel()
	s := newSync()
	b1, b2 := decodeRow(t, s, testsignal.Row(0x14, 0x2F, testsignal.Options{}))
	assert.Equal(t, byte(0x14), b1)
	assert.Equal(t, byte(0x2F), b2)
}

func TestDecodeToleratesBurstOffset(t *testing.T) {
	t.Parallel()
	for _, offset := range []float64{-8, -3.5, 0, 2.25, 7, 15, 24} {
		offset := offset
		t.Run(fmt.Sprintf("offset_%.2f", offset), func(t *testing.T) {
			t.Parallel()
			s := newSync()
			b1, b2 := decodeRow(t, s, testsignal.Row(0x48, 0x49, testsignal.Options{Offset: offset}))
			assert.Equal(t, byte(0x48), b1)
			assert.Equal(t, byte(0x49), b2)
		})
	}
}

func TestDecodeToleratesPeriodDrift(t *testing.T) {
	t.Parallel()
	// Within the configured 6% period tolerance the measured clock is
	// trusted over the nominal one.
	for _, period := range []float64{26.5, 27.5} {
		period := period
		t.Run(fmt.Sprintf("period_%.1f", period), func(t *testing.T) {
			t.Parallel()
			s := newSync()
			b1, b2 := decodeRow(t, s, testsignal.Row(0x20, 0x7E, testsignal.Options{Period: period}))
			assert.Equal(t, byte(0x20), b1)
			assert.Equal(t, byte(0x7E), b2)
		})
	}
}

func TestDecodeToleratesNoise(t *testing.T) {
	t.Parallel()
	for seed := int64(1); seed <= 5; seed++ {
		s := newSync()
		row := testsignal.Row(0x45, 0x33, testsignal.Options{Noise: 15, Seed: seed, Offset: 3})
		b1, b2 := decodeRow(t, s, row)
		assert.Equal(t, byte(0x45), b1, "seed %d", seed)
		assert.Equal(t, byte(0x33), b2, "seed %d", seed)
	}
}

func TestDecodeBlankRow(t *testing.T) {
	t.Parallel()
	s := newSync()
	_, _, outcome := s.Decode(testsignal.BlankRow(testsignal.Options{Noise: 10, Seed: 7}))
	assert.Equal(t, entities.SyncNoRunIn, outcome)
}

func TestDecodeTruncatedRow(t *testing.T) {
	t.Parallel()
	s := newSync()
	// Run-in fits but the data bits run past the end of the row.
	_, _, outcome := s.Decode(testsignal.Row(0x14, 0x20, testsignal.Options{Width: 500}))
	assert.Equal(t, entities.SyncOffEnd, outcome)
}

func TestDecodeKeepsParityBit(t *testing.T) {
	t.Parallel()
	s := newSync()
	// Forge a symbol with broken parity; the synchronizer must hand it
	// through untouched for the parity layer to flag.
	bad := parity.WithParity(0x41) ^ 0x80
	raw1, raw2, outcome := s.Decode(testsignal.RawRow(bad, parity.WithParity(0x42), testsignal.Options{}))
	assert.Equal(t, entities.SyncOK, outcome)
	_, v1 := parity.Check(raw1)
	_, v2 := parity.Check(raw2)
	assert.False(t, v1)
	assert.True(t, v2)
}

func TestDetectRunInReusesLastOffset(t *testing.T) {
	t.Parallel()
	s := newSync()
	row := testsignal.Row(0x14, 0x20, testsignal.Options{Offset: 5})
	first, ok := s.DetectRunIn(row)
	assert.True(t, ok)
	again, ok := s.DetectRunIn(row)
	assert.True(t, ok)
	assert.Equal(t, first, again)
}
