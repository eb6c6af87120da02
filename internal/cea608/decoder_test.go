package cea608_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"line21/internal/cea608"
	"line21/internal/entities"
)

type harness struct {
	dec     *cea608.Decoder
	stats   *entities.SessionStats
	changes []entities.ScreenChange
	packets []entities.XDSPacket
	text    string
	textCh  entities.ChannelID
	frame   int
}

func newHarness() *harness {
	h := &harness{stats: &entities.SessionStats{}}
	h.dec = cea608.NewDecoder(h.stats, cea608.Handlers{
		ScreenChange: func(sc entities.ScreenChange) { h.changes = append(h.changes, sc) },
		XDS:          func(p entities.XDSPacket) { h.packets = append(h.packets, p) },
		Text: func(ch entities.ChannelID, text string, frame int, pts time.Duration) {
			h.textCh = ch
			h.text += text
		},
	}, zap.NewNop().Sugar())
	return h
}

func (h *harness) pair(parity entities.FieldParity, b1, b2 byte) {
	h.frame++
	h.dec.Consume(entities.BytePair{
		Frame:  h.frame,
		Parity: parity,
		B1:     b1,
		B2:     b2,
		Valid1: true,
		Valid2: true,
	})
}

func (h *harness) field1(pairs ...[2]byte) {
	for _, p := range pairs {
		h.pair(entities.FieldOne, p[0], p[1])
	}
}

func (h *harness) lastVisible(t *testing.T) []string {
	t.Helper()
	require.NotEmpty(t, h.changes)
	rows := h.changes[len(h.changes)-1].Content.Rows()
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Plain())
	}
	return out
}

func TestPopOnCaption(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x20}, // resume caption loading
		[2]byte{0x14, 0x60}, // PAC row 15
		[2]byte{0x48, 0x49}, // HI
		[2]byte{0x14, 0x2F}, // end of caption
	)
	require.Len(t, h.changes, 1, "loading must stay off screen until the flip")
	assert.Equal(t, entities.CC1, h.changes[0].Channel)
	assert.Equal(t, entities.ModePopOn, h.changes[0].Mode)
	assert.Equal(t, []string{"HI"}, h.lastVisible(t))

	h.field1([2]byte{0x14, 0x2C}) // erase displayed
	require.Len(t, h.changes, 2)
	assert.True(t, h.changes[1].Content.Empty())
}

func TestDoubleTransmissionSuppressed(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1([2]byte{0x14, 0x20}, [2]byte{0x14, 0x20})
	assert.Equal(t, 1, h.stats.ControlCodes)
	assert.Equal(t, 1, h.stats.DuplicatesSeen)

	// A third identical pair is a fresh command again.
	h.field1([2]byte{0x14, 0x20})
	assert.Equal(t, 2, h.stats.ControlCodes)
	assert.Equal(t, 1, h.stats.DuplicatesSeen)
}

func TestDuplicateLookbackBrokenByOtherPair(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x20},
		[2]byte{0x00, 0x00}, // null pad clears the lookback
		[2]byte{0x14, 0x20},
	)
	assert.Equal(t, 2, h.stats.ControlCodes)
	assert.Equal(t, 0, h.stats.DuplicatesSeen)
}

func TestRollUpCaption(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x26}, // roll-up 3 rows
		[2]byte{0x4F, 0x4E}, // ON
		[2]byte{0x45, 0x00}, // E
		[2]byte{0x14, 0x2D}, // carriage return
		[2]byte{0x54, 0x57}, // TW
		[2]byte{0x4F, 0x00}, // O
	)
	assert.Equal(t, []string{"ONE", "TWO"}, h.lastVisible(t))

	// Two more returns scroll ONE out of the three-row window.
	h.field1(
		[2]byte{0x14, 0x2D},
		[2]byte{0x54, 0x48}, // TH
		[2]byte{0x14, 0x2D},
	)
	assert.Equal(t, []string{"TWO", "TH"}, h.lastVisible(t))
}

func TestPaintOnCaption(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x29}, // resume direct captioning
		[2]byte{0x14, 0x60}, // PAC row 15
		[2]byte{0x4F, 0x4B}, // OK
	)
	// Paint-on draws straight to the screen: each character is visible
	// as it lands.
	require.Len(t, h.changes, 2)
	assert.Equal(t, []string{"OK"}, h.lastVisible(t))
	assert.Equal(t, entities.ModePaintOn, h.changes[1].Mode)
}

func TestMidRowStyling(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x29},
		[2]byte{0x14, 0x60},
		[2]byte{0x41, 0x00}, // A
		[2]byte{0x11, 0x28}, // mid-row red
		[2]byte{0x42, 0x00}, // B
	)
	rows := h.changes[len(h.changes)-1].Content.Rows()
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Segments, 2)
	assert.Equal(t, entities.White, rows[0].Segments[0].Style.Color)
	assert.Equal(t, entities.Red, rows[0].Segments[1].Style.Color)
	assert.Equal(t, "B", rows[0].Segments[1].Text)
}

func TestExtendedCharReplacesPrevious(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x29},
		[2]byte{0x14, 0x60},
		[2]byte{0x45, 0x00}, // fallback E
		[2]byte{0x12, 0x21}, // extended É replaces it
	)
	assert.Equal(t, []string{"É"}, h.lastVisible(t))
}

func TestSecondFieldChannels(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.pair(entities.FieldTwo, 0x14, 0x29) // RDC on field 2 is CC3
	h.pair(entities.FieldTwo, 0x14, 0x60)
	h.pair(entities.FieldTwo, 0x41, 0x00)
	require.NotEmpty(t, h.changes)
	assert.Equal(t, entities.CC3, h.changes[len(h.changes)-1].Channel)

	// Data-channel bit on field 1 selects CC2.
	h.pair(entities.FieldOne, 0x1C, 0x29)
	h.pair(entities.FieldOne, 0x1C, 0x60)
	h.pair(entities.FieldOne, 0x42, 0x00)
	assert.Equal(t, entities.CC2, h.changes[len(h.changes)-1].Channel)
}

func TestTextModeStreams(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1(
		[2]byte{0x14, 0x2A}, // text restart -> T1
		[2]byte{0x48, 0x45}, // HE
		[2]byte{0x59, 0x00}, // Y
		[2]byte{0x14, 0x2D}, // carriage return scrolls the text display
		[2]byte{0x4F, 0x4B}, // OK
	)
	assert.Equal(t, entities.T1, h.textCh)
	assert.Equal(t, "HEY\nOK", h.text)
	assert.Empty(t, h.changes, "text service never touches the caption screen")
	assert.Equal(t, 6, h.stats.TextChars)
}

func TestParityFailedPrintableBecomesBlock(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.field1([2]byte{0x14, 0x29}, [2]byte{0x14, 0x60})
	h.frame++
	h.dec.Consume(entities.BytePair{
		Frame: h.frame, Parity: entities.FieldOne,
		B1: 0x48, B2: 0x00, Valid1: false, Valid2: true,
	})
	assert.Equal(t, []string{"■"}, h.lastVisible(t))
}

func TestParityFailedControlDropped(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.frame++
	h.dec.Consume(entities.BytePair{
		Frame: h.frame, Parity: entities.FieldOne,
		B1: 0x14, B2: 0x20, Valid1: true, Valid2: false,
	})
	assert.Equal(t, 0, h.stats.ControlCodes)
}

func TestXDSPacket(t *testing.T) {
	t.Parallel()
	h := newHarness()
	// Current class, program name "AB", checksum closing the packet to a
	// zero sum mod 128.
	h.pair(entities.FieldTwo, 0x01, 0x03)
	h.pair(entities.FieldTwo, 0x41, 0x42)
	h.pair(entities.FieldTwo, 0x0F, 0x6A)

	require.Len(t, h.packets, 1)
	p := h.packets[0]
	assert.True(t, p.Valid)
	assert.Equal(t, byte(0x01), p.Class)
	assert.Equal(t, byte(0x03), p.Type)
	assert.Equal(t, []byte{0x41, 0x42}, p.Payload)
	assert.Equal(t, 1, h.stats.XDSPackets)
	assert.Equal(t, 0, h.stats.XDSInvalid)
}

func TestXDSBadChecksum(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.pair(entities.FieldTwo, 0x01, 0x03)
	h.pair(entities.FieldTwo, 0x41, 0x42)
	h.pair(entities.FieldTwo, 0x0F, 0x00)

	require.Len(t, h.packets, 1)
	assert.False(t, h.packets[0].Valid)
	assert.Equal(t, 1, h.stats.XDSInvalid)
}

func TestXDSSurvivesCaptionInterrupt(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.pair(entities.FieldTwo, 0x01, 0x03)
	h.pair(entities.FieldTwo, 0x14, 0x20) // caption control suspends, not aborts
	h.pair(entities.FieldTwo, 0x41, 0x42)
	h.pair(entities.FieldTwo, 0x0F, 0x6A)

	require.Len(t, h.packets, 1)
	assert.True(t, h.packets[0].Valid)
	assert.Equal(t, []byte{0x41, 0x42}, h.packets[0].Payload)
}

func TestFlushClosesOpenXDS(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.pair(entities.FieldTwo, 0x01, 0x03)
	h.pair(entities.FieldTwo, 0x41, 0x42)
	h.dec.Flush()

	require.Len(t, h.packets, 1)
	assert.False(t, h.packets[0].Valid)
}

func TestLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Null", cea608.Label(0x00, 0x00))
	assert.Equal(t, "Text: HI", cea608.Label(0x48, 0x49))
	assert.Contains(t, cea608.Label(0x14, 0x2F), "End of Caption")
	assert.Contains(t, cea608.Label(0x14, 0x60), "row 15")
	assert.True(t, cea608.IsControl(0x14, 0x2F))
	assert.False(t, cea608.IsControl(0x48, 0x49))
}
