package entities

import (
	"fmt"
	"strings"
	"time"
)

// FieldParity identifies which interlaced field a sample or byte pair came
// from. Field two carries CC3/CC4, T3/T4 and XDS.
type FieldParity int

const (
	FieldOne FieldParity = 1
	FieldTwo FieldParity = 2
)

// FieldSample is one video field's raw scanline waveform, as located by the
// sampler. Samples are 8-bit luma values, 0 (black) to 255 (white).
type FieldSample struct {
	Frame   int
	Parity  FieldParity
	PTS     time.Duration
	Row     int
	Samples []byte
}

// FrameStrip is what a field producer emits: the cropped top-of-frame
// scanline strip for one video frame.
type FrameStrip struct {
	Frame int
	PTS   time.Duration
	Width int
	Rows  [][]byte
}

// SyncOutcome is the per-field result of bit synchronization. Failures are
// expected signal noise, not errors.
type SyncOutcome int

const (
	SyncOK SyncOutcome = iota
	SyncNoRunIn
	SyncOffEnd
)

func (o SyncOutcome) String() string {
	switch o {
	case SyncOK:
		return "ok"
	case SyncNoRunIn:
		return "no-run-in"
	case SyncOffEnd:
		return "off-end"
	}
	return "unknown"
}

// BytePair is the two parity-checked data bytes recovered from one field.
// B1 and B2 hold the 7 data bits; Valid1/Valid2 report odd parity.
type BytePair struct {
	Frame  int
	Parity FieldParity
	PTS    time.Duration
	B1, B2 byte
	Valid1 bool
	Valid2 bool
}

// Valid reports whether both bytes passed parity.
func (p BytePair) Valid() bool { return p.Valid1 && p.Valid2 }

// Null reports the null-pad pair (0x00 0x00) that fills fields carrying no
// caption traffic.
func (p BytePair) Null() bool { return p.B1 == 0 && p.B2 == 0 }

// ChannelID names one of the four caption channels or four text channels.
type ChannelID int

const (
	ChannelNone ChannelID = iota
	CC1
	CC2
	CC3
	CC4
	T1
	T2
	T3
	T4
)

func (c ChannelID) String() string {
	switch {
	case c >= CC1 && c <= CC4:
		return fmt.Sprintf("CC%d", int(c-CC1)+1)
	case c >= T1 && c <= T4:
		return fmt.Sprintf("T%d", int(c-T1)+1)
	}
	return "none"
}

// Text reports whether the channel is a Text-service channel (T1-T4).
func (c ChannelID) Text() bool { return c >= T1 && c <= T4 }

// CaptionMode is the display mode a channel is operating in.
type CaptionMode int

const (
	ModeNone CaptionMode = iota
	ModePopOn
	ModeRollUp
	ModePaintOn
	ModeText
)

func (m CaptionMode) String() string {
	switch m {
	case ModePopOn:
		return "pop-on"
	case ModeRollUp:
		return "roll-up"
	case ModePaintOn:
		return "paint-on"
	case ModeText:
		return "text"
	}
	return "none"
}

// Color is a CEA-608 foreground color.
type Color int

const (
	White Color = iota
	Green
	Blue
	Cyan
	Red
	Yellow
	Magenta
)

func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Cyan:
		return "cyan"
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Magenta:
		return "magenta"
	}
	return "white"
}

// Style is the attribute set applied to a glyph cell.
type Style struct {
	Color     Color
	Italics   bool
	Underline bool
}

func (s Style) String() string {
	out := s.Color.String()
	if s.Italics {
		out += " italics"
	}
	if s.Underline {
		out += " underline"
	}
	return out
}

// Cell is one glyph position on the caption grid. A zero Char means the
// cell is empty (transparent).
type Cell struct {
	Char  rune
	Style Style
}

// Caption grid dimensions fixed by CEA-608-E.
const (
	ScreenRows = 15
	ScreenCols = 32
)

// Screen is a caption buffer snapshot: 15 rows by 32 columns of styled
// glyph cells. Snapshots handed downstream are immutable.
type Screen struct {
	Cells [ScreenRows][ScreenCols]Cell
}

// Empty reports whether no cell holds a glyph.
func (s *Screen) Empty() bool {
	for r := range s.Cells {
		for c := range s.Cells[r] {
			if s.Cells[r][c].Char != 0 {
				return false
			}
		}
	}
	return true
}

// Rows flattens the grid into styled rows, dropping blank rows and
// trimming surrounding empty cells. Runs of equal style collapse into one
// segment.
func (s *Screen) Rows() []StyledRow {
	var rows []StyledRow
	for r := range s.Cells {
		row := styledRowFrom(s.Cells[r][:])
		if len(row.Segments) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func styledRowFrom(cells []Cell) StyledRow {
	first, last := -1, -1
	for i, c := range cells {
		if c.Char != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return StyledRow{}
	}
	var row StyledRow
	for _, c := range cells[first : last+1] {
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}
		n := len(row.Segments)
		if n == 0 || c.Style != row.Segments[n-1].Style {
			row.Segments = append(row.Segments, StyledSegment{Style: c.Style})
			n++
		}
		row.Segments[n-1].Text += string(ch)
	}
	return row
}

// StyledSegment is a run of characters sharing one style.
type StyledSegment struct {
	Text  string
	Style Style
}

// StyledRow is one caption row as a sequence of styled segments.
type StyledRow struct {
	Segments []StyledSegment
}

// Plain returns the row text with styling dropped.
func (r StyledRow) Plain() string {
	var b strings.Builder
	for _, s := range r.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// ScreenChange is emitted by the protocol state machine whenever a
// channel's visible content changes.
type ScreenChange struct {
	Channel ChannelID
	Mode    CaptionMode
	Content Screen
	Frame   int
	PTS     time.Duration
}

// Cue is a finalized, timestamped caption unit. End is exclusive and set
// when the channel's next screen change occurs or at stream end.
type Cue struct {
	Channel ChannelID
	Mode    CaptionMode
	Start   time.Duration
	End     time.Duration
	Rows    []StyledRow
}

// PlainText joins the cue rows with newlines, styling dropped.
func (c *Cue) PlainText() string {
	lines := make([]string, 0, len(c.Rows))
	for _, r := range c.Rows {
		lines = append(lines, r.Plain())
	}
	return strings.Join(lines, "\n")
}

// XDSPacket is one accumulated eXtended Data Services packet from field 2.
// Payload holds the informational bytes between the class/type pair and
// the 0x0F/checksum pair.
type XDSPacket struct {
	Class    byte
	Type     byte
	Payload  []byte
	Checksum byte
	Valid    bool
	Frame    int
	PTS      time.Duration
}

// SessionStats counts per-session decode activity. Recoverable anomalies
// are tallied here instead of being logged per field.
type SessionStats struct {
	FramesProcessed int
	FieldsWithData  int
	BlankFrames     int
	UnsyncedFields  int
	ParityErrors    int
	ControlCodes    int
	DuplicatesSeen  int
	CuesEmitted     int
	TextChars       int
	XDSPackets      int
	XDSInvalid      int
}
