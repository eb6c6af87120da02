// Package cea608 is the CEA-608-E protocol state machine: it consumes one
// parity-checked byte pair per field and maintains the caption and text
// channel screen state, emitting screen-change events, text stream data
// and XDS packets. Corrupt input never halts it; anything unrecognized is
// dropped for that field.
package cea608

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"line21/internal/entities"
)

// Handlers receive the decoder's downstream events. Nil handlers are
// skipped.
type Handlers struct {
	ScreenChange func(entities.ScreenChange)
	XDS          func(entities.XDSPacket)
	Text         func(ch entities.ChannelID, text string, frame int, pts time.Duration)
	Trace        func(frame int, pts time.Duration, msg string)
}

// Decoder holds the per-channel caption state for one decode session. It
// is owned by the pipeline goroutine; fields must arrive in order.
type Decoder struct {
	l     *zap.SugaredLogger
	h     Handlers
	stats *entities.SessionStats

	chans map[entities.ChannelID]*channelState
	// current is the channel printable bytes are routed to, per field.
	current [2]entities.ChannelID
	// lastCtrl implements the double-transmission rule: one field of
	// lookback per field stream, cleared by any non-matching pair.
	lastCtrl [2]uint16

	xdsActive bool
	xdsBuf    []byte
	xdsFrame  int
	xdsPTS    time.Duration
}

type channelState struct {
	id        entities.ChannelID
	mode      entities.CaptionMode
	rollRows  int
	baseRow   int
	row, col  int
	style     entities.Style
	displayed entities.Screen
	offscreen entities.Screen
	// lastEmitted is the displayed content at the last screen-change
	// event, used to suppress no-op events.
	lastEmitted entities.Screen
}

func NewDecoder(stats *entities.SessionStats, h Handlers, l *zap.SugaredLogger) *Decoder {
	return &Decoder{
		l:     l,
		h:     h,
		stats: stats,
		chans: map[entities.ChannelID]*channelState{},
	}
}

func (d *Decoder) state(ch entities.ChannelID) *channelState {
	st, ok := d.chans[ch]
	if !ok {
		st = &channelState{id: ch, baseRow: entities.ScreenRows, row: entities.ScreenRows}
		d.chans[ch] = st
	}
	return st
}

func captionChannel(field int, dataCh byte) entities.ChannelID {
	return entities.CC1 + entities.ChannelID(field*2) + entities.ChannelID(dataCh)
}

func textChannel(field int, dataCh byte) entities.ChannelID {
	return entities.T1 + entities.ChannelID(field*2) + entities.ChannelID(dataCh)
}

// Consume advances the state machine by one field's byte pair.
func (d *Decoder) Consume(bp entities.BytePair) {
	f := int(bp.Parity) - 1
	if f < 0 || f > 1 {
		return
	}

	// An untrustworthy first byte cannot carry a command. If it claims a
	// displayable character, the solid block stands in for it so the
	// viewer sees the loss. Either way it breaks a duplicate pair.
	if !bp.Valid1 {
		d.lastCtrl[f] = 0
		if bp.B1 >= 0x20 {
			if ch := d.current[f]; ch != entities.ChannelNone {
				d.writeRune(ch, blockChar, bp)
			}
		}
		return
	}

	if bp.Null() {
		d.lastCtrl[f] = 0
		return
	}

	b1 := bp.B1
	switch {
	case b1 < 0x10:
		d.lastCtrl[f] = 0
		if bp.Parity == entities.FieldTwo {
			d.consumeXDS(bp)
		}
	case b1 < 0x20:
		if !bp.Valid2 {
			d.lastCtrl[f] = 0
			return
		}
		key := uint16(b1)<<8 | uint16(bp.B2)
		if key == d.lastCtrl[f] {
			d.lastCtrl[f] = 0
			d.stats.DuplicatesSeen++
			d.trace(bp, "repeat %02x %02x suppressed", b1, bp.B2)
			return
		}
		d.lastCtrl[f] = key
		d.stats.ControlCodes++
		d.control(f, bp)
	default:
		d.lastCtrl[f] = 0
		// Informational bytes of an open XDS packet also land in the
		// printable range; caption control codes are what interrupt it.
		if bp.Parity == entities.FieldTwo && d.xdsActive {
			d.consumeXDS(bp)
			return
		}
		d.printable(f, bp)
	}
}

// Flush closes any partially accumulated XDS packet at end of stream.
func (d *Decoder) Flush() {
	if d.xdsActive {
		d.closeXDS(false)
	}
}

func (d *Decoder) control(f int, bp entities.BytePair) {
	b1, b2 := bp.B1, bp.B2
	dataCh := (b1 >> 3) & 1
	c := b1 &^ 0x08

	if b2 >= 0x40 {
		d.preamble(f, dataCh, c, b2, bp)
		return
	}

	switch {
	case c == 0x10 && b2 >= 0x20:
		// Background attribute extension; recognized but carried by no
		// output format.
		d.current[f] = captionChannel(f, dataCh)
		d.trace(bp, "%s background attribute %02x", d.current[f], b2)

	case c == 0x11 && b2 >= 0x20 && b2 < 0x30:
		ch := captionChannel(f, dataCh)
		d.current[f] = ch
		st := d.state(ch)
		st.style = midRowStyle(b2)
		d.trace(bp, "%s mid-row %v", ch, st.style)

	case c == 0x11 && b2 >= 0x30:
		d.writeChar(f, dataCh, specialChars[b2-0x30], bp)

	case (c == 0x12 || c == 0x13) && b2 >= 0x20:
		var r rune
		if c == 0x12 {
			r = extendedSpanishFrench[b2-0x20]
		} else {
			r = extendedPortugueseGermanDanish[b2-0x20]
		}
		// Extended characters replace the standard character sent just
		// before them as a fallback for older decoders.
		d.backspace(f, dataCh, bp)
		d.writeChar(f, dataCh, r, bp)

	case (c == 0x14 || c == 0x15) && b2 >= 0x20 && b2 < 0x30:
		d.misc(f, dataCh, b2, bp)

	case c == 0x17 && b2 >= 0x21 && b2 <= 0x23:
		ch := captionChannel(f, dataCh)
		d.current[f] = ch
		st := d.state(ch)
		st.col += int(b2 - 0x20)
		if st.col > entities.ScreenCols-1 {
			st.col = entities.ScreenCols - 1
		}
		d.trace(bp, "%s tab offset %d", ch, b2-0x20)

	case c == 0x17 && b2 >= 0x2D && b2 <= 0x2F:
		d.trace(bp, "%s foreground/background attribute %02x", captionChannel(f, dataCh), b2)

	default:
		d.trace(bp, "unrecognized control %02x %02x", b1, b2)
	}
}

func (d *Decoder) preamble(f int, dataCh, c, b2 byte, bp entities.BytePair) {
	row := pacRow(c, b2)
	if row == 0 {
		d.trace(bp, "unrecognized PAC %02x %02x", bp.B1, b2)
		return
	}
	ch := d.current[f]
	if !ch.Text() {
		ch = captionChannel(f, dataCh)
		d.current[f] = ch
	}
	st := d.state(ch)
	style, indent := pacAttr(b2)
	st.style = style
	st.col = indent
	if st.mode == entities.ModeRollUp {
		// A PAC relocates the roll-up window; the rows themselves stay.
		st.baseRow = row
		st.row = row
	} else {
		st.row = row
	}
	d.trace(bp, "%s PAC row %d col %d %v", ch, row, indent, style)
}

func (d *Decoder) misc(f int, dataCh, b2 byte, bp entities.BytePair) {
	switch b2 {
	case cmdTextRestart:
		ch := textChannel(f, dataCh)
		d.current[f] = ch
		st := d.state(ch)
		if st.mode == entities.ModeText {
			d.emitText(ch, "\n", bp)
		}
		st.mode = entities.ModeText
		st.row, st.col = 1, 0
		d.trace(bp, "%s text restart", ch)
		return
	case cmdResumeTextDisplay:
		ch := textChannel(f, dataCh)
		d.current[f] = ch
		d.state(ch).mode = entities.ModeText
		d.trace(bp, "%s resume text display", ch)
		return
	}

	// While a text service is current, a carriage return scrolls the text
	// display; it does not flip back to the caption channel.
	if cur := d.current[f]; cur.Text() && b2 == cmdCarriageReturn {
		d.emitText(cur, "\n", bp)
		d.trace(bp, "%s carriage return", cur)
		return
	}

	ch := captionChannel(f, dataCh)
	d.current[f] = ch
	st := d.state(ch)

	switch b2 {
	case cmdResumeCaptionLoading:
		st.mode = entities.ModePopOn
		d.trace(bp, "%s resume caption loading", ch)

	case cmdBackspace:
		d.backspace(f, dataCh, bp)

	case cmdDeleteToEndOfRow:
		buf := st.writeBuffer()
		for col := st.col; col < entities.ScreenCols; col++ {
			buf.Cells[st.row-1][col] = entities.Cell{}
		}
		d.emitIfChanged(st, bp)
		d.trace(bp, "%s delete to end of row", ch)

	case cmdRollUp2, cmdRollUp3, cmdRollUp4:
		rows := rollUpRows[b2]
		if st.mode != entities.ModeRollUp {
			st.displayed = entities.Screen{}
			st.baseRow = entities.ScreenRows
		}
		st.offscreen = entities.Screen{}
		st.mode = entities.ModeRollUp
		st.rollRows = rows
		st.row = st.baseRow
		st.col = 0
		d.emitIfChanged(st, bp)
		d.trace(bp, "%s roll-up %d rows", ch, rows)

	case cmdFlashOn, cmdAlarmOff, cmdAlarmOn:
		d.trace(bp, "%s %s", ch, miscNames[b2])

	case cmdResumeDirectCaption:
		st.mode = entities.ModePaintOn
		d.trace(bp, "%s resume direct captioning", ch)

	case cmdEraseDisplayed:
		st.displayed = entities.Screen{}
		d.emitIfChanged(st, bp)
		d.trace(bp, "%s erase displayed memory", ch)

	case cmdCarriageReturn:
		if st.mode != entities.ModeRollUp {
			d.trace(bp, "%s carriage return outside roll-up ignored", ch)
			return
		}
		top := st.baseRow - st.rollRows + 1
		if top < 1 {
			top = 1
		}
		for r := top; r < st.baseRow; r++ {
			st.displayed.Cells[r-1] = st.displayed.Cells[r]
		}
		st.displayed.Cells[st.baseRow-1] = [entities.ScreenCols]entities.Cell{}
		st.row = st.baseRow
		st.col = 0
		d.emitIfChanged(st, bp)
		d.trace(bp, "%s carriage return", ch)

	case cmdEraseNonDisplayed:
		st.offscreen = entities.Screen{}
		d.trace(bp, "%s erase non-displayed memory", ch)

	case cmdEndOfCaption:
		st.mode = entities.ModePopOn
		st.displayed, st.offscreen = st.offscreen, st.displayed
		d.emitIfChanged(st, bp)
		d.trace(bp, "%s end of caption", ch)
	}
}

func (d *Decoder) printable(f int, bp entities.BytePair) {
	ch := d.current[f]
	if ch == entities.ChannelNone {
		return
	}
	if r, ok := baseChars[bp.B1]; ok {
		d.writeRune(ch, r, bp)
	}
	if bp.B2 >= 0x20 {
		if !bp.Valid2 {
			d.writeRune(ch, blockChar, bp)
		} else if r, ok := baseChars[bp.B2]; ok {
			d.writeRune(ch, r, bp)
		}
	}
}

func (d *Decoder) writeChar(f int, dataCh byte, r rune, bp entities.BytePair) {
	ch := d.current[f]
	if ch == entities.ChannelNone {
		ch = captionChannel(f, dataCh)
		d.current[f] = ch
	}
	d.writeRune(ch, r, bp)
}

func (d *Decoder) writeRune(ch entities.ChannelID, r rune, bp entities.BytePair) {
	st := d.state(ch)
	if ch.Text() {
		d.emitText(ch, string(r), bp)
		return
	}
	if st.col >= entities.ScreenCols {
		// No auto-wrap: overflow past column 32 is dropped.
		return
	}
	if st.row < 1 {
		st.row = entities.ScreenRows
	}
	buf := st.writeBuffer()
	buf.Cells[st.row-1][st.col] = entities.Cell{Char: r, Style: st.style}
	st.col++
	d.emitIfChanged(st, bp)
}

func (d *Decoder) backspace(f int, dataCh byte, bp entities.BytePair) {
	ch := d.current[f]
	if ch == entities.ChannelNone {
		return
	}
	st := d.state(ch)
	if ch.Text() || st.col == 0 {
		return
	}
	st.col--
	st.writeBuffer().Cells[st.row-1][st.col] = entities.Cell{}
	d.emitIfChanged(st, bp)
}

// writeBuffer is where characters land: the off-screen buffer while a
// pop-on caption is loading, the displayed buffer otherwise.
func (st *channelState) writeBuffer() *entities.Screen {
	if st.mode == entities.ModePopOn {
		return &st.offscreen
	}
	return &st.displayed
}

func (d *Decoder) emitIfChanged(st *channelState, bp entities.BytePair) {
	if st.displayed == st.lastEmitted {
		return
	}
	st.lastEmitted = st.displayed
	if d.h.ScreenChange != nil {
		d.h.ScreenChange(entities.ScreenChange{
			Channel: st.id,
			Mode:    st.mode,
			Content: st.displayed,
			Frame:   bp.Frame,
			PTS:     bp.PTS,
		})
	}
}

func (d *Decoder) emitText(ch entities.ChannelID, text string, bp entities.BytePair) {
	d.stats.TextChars += len([]rune(text))
	if d.h.Text != nil {
		d.h.Text(ch, text, bp.Frame, bp.PTS)
	}
}

func (d *Decoder) consumeXDS(bp entities.BytePair) {
	if !bp.Valid() {
		return
	}
	if !d.xdsActive {
		if bp.B1 >= 0x01 && bp.B1 <= 0x0E {
			d.xdsActive = true
			d.xdsBuf = append(d.xdsBuf[:0], bp.B1, bp.B2)
			d.xdsFrame = bp.Frame
			d.xdsPTS = bp.PTS
		}
		return
	}
	d.xdsBuf = append(d.xdsBuf, bp.B1, bp.B2)
	if bp.B1 == 0x0F {
		d.closeXDS(true)
	}
}

func (d *Decoder) closeXDS(complete bool) {
	d.xdsActive = false
	if len(d.xdsBuf) < 2 {
		return
	}
	sum := 0
	for _, b := range d.xdsBuf {
		sum += int(b)
	}
	payload := d.xdsBuf[2:]
	var checksum byte
	if complete && len(payload) >= 2 {
		checksum = payload[len(payload)-1]
		payload = payload[:len(payload)-2]
	}
	pkt := entities.XDSPacket{
		Class:    d.xdsBuf[0],
		Type:     d.xdsBuf[1],
		Payload:  append([]byte(nil), payload...),
		Checksum: checksum,
		Valid:    complete && sum%128 == 0,
		Frame:    d.xdsFrame,
		PTS:      d.xdsPTS,
	}
	d.stats.XDSPackets++
	if !pkt.Valid {
		d.stats.XDSInvalid++
	}
	if d.h.XDS != nil {
		d.h.XDS(pkt)
	}
	d.xdsBuf = d.xdsBuf[:0]
}

func (d *Decoder) trace(bp entities.BytePair, format string, args ...any) {
	if d.h.Trace == nil {
		return
	}
	d.h.Trace(bp.Frame, bp.PTS, fmt.Sprintf(format, args...))
}
