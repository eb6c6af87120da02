package cea608

import "line21/internal/entities"

// baseChars is the standard CEA-608 character set for printable bytes
// 0x20-0x7F. Mostly ASCII with the handful of substitutions the standard
// carves out (0x2A, 0x5C, 0x5E-0x60, 0x7B-0x7F).
var baseChars = buildBaseChars()

func buildBaseChars() map[byte]rune {
	t := map[byte]rune{
		0x2A: 'á', 0x5C: 'é', 0x5E: 'í', 0x5F: 'ó', 0x60: 'ú',
		0x7B: 'ç', 0x7C: '÷', 0x7D: 'Ñ', 0x7E: 'ñ', 0x7F: '■',
	}
	for b := byte(0x20); b < 0x80; b++ {
		if _, ok := t[b]; !ok {
			t[b] = rune(b)
		}
	}
	return t
}

// blockChar stands in for a displayable byte whose parity check failed.
const blockChar = '■'

// specialChars are the two-byte characters reached through 0x11/0x19 with
// a second byte of 0x30-0x3F.
var specialChars = [16]rune{
	'®', '°', '½', '¿', '™', '¢', '£', '♪',
	'à', ' ', 'è', 'â', 'ê', 'î', 'ô', 'û',
}

// extendedSpanishFrench is the extended Western European set reached
// through 0x12/0x1A, second byte 0x20-0x3F. An extended character replaces
// the standard character transmitted just before it.
var extendedSpanishFrench = [32]rune{
	'Á', 'É', 'Ó', 'Ú', 'Ü', 'ü', '´', '¡',
	'*', '\'', '─', '©', '℠', '•', '“', '”',
	'À', 'Â', 'Ç', 'È', 'Ê', 'Ë', 'ë', 'Î',
	'Ï', 'ï', 'Ô', 'Ù', 'ù', 'Û', '«', '»',
}

// extendedPortugueseGermanDanish is reached through 0x13/0x1B.
var extendedPortugueseGermanDanish = [32]rune{
	'Ã', 'ã', 'Í', 'Ì', 'ì', 'Ò', 'ò', 'Õ',
	'õ', '{', '}', '\\', '^', '_', '|', '~',
	'Ä', 'ä', 'Ö', 'ö', 'ß', '¥', '¤', '│',
	'Å', 'å', 'Ø', 'ø', '┌', '┐', '└', '┘',
}

// pacRows maps a normalized first control byte (0x10-0x17) to the rows it
// addresses: index 0 for second byte 0x40-0x5F, index 1 for 0x60-0x7F.
// Row 0 means the half-range is unused. Rows are 1-based per the standard.
var pacRows = map[byte][2]int{
	0x11: {1, 2},
	0x12: {3, 4},
	0x15: {5, 6},
	0x16: {7, 8},
	0x17: {9, 10},
	0x10: {11, 0},
	0x13: {12, 13},
	0x14: {14, 15},
}

// pacRow resolves a Preamble Address Code's 1-based row, or 0 when the
// combination is not a valid PAC.
func pacRow(c, b2 byte) int {
	rows, ok := pacRows[c]
	if !ok || b2 < 0x40 || b2 > 0x7F {
		return 0
	}
	if b2 < 0x60 {
		return rows[0]
	}
	return rows[1]
}

// pacAttr decodes a PAC's low five bits into style, indent and underline.
// Attributes 0-6 are colors, 7 is white italics, 8-15 are indents in
// steps of four columns.
func pacAttr(b2 byte) (style entities.Style, indent int) {
	style.Underline = b2&0x01 != 0
	attr := (b2 >> 1) & 0x0F
	switch {
	case attr < 7:
		style.Color = entities.Color(attr)
	case attr == 7:
		style.Color = entities.White
		style.Italics = true
	default:
		style.Color = entities.White
		indent = int(attr-8) * 4
	}
	return style, indent
}

// midRowStyle decodes a mid-row code's second byte (0x20-0x2F).
func midRowStyle(b2 byte) entities.Style {
	var style entities.Style
	style.Underline = b2&0x01 != 0
	attr := (b2 >> 1) & 0x07
	if attr == 7 {
		style.Color = entities.White
		style.Italics = true
	} else {
		style.Color = entities.Color(attr)
	}
	return style
}

// Miscellaneous control command second bytes (first byte 0x14/0x15 or
// 0x1C/0x1D).
const (
	cmdResumeCaptionLoading  = 0x20
	cmdBackspace             = 0x21
	cmdAlarmOff              = 0x22
	cmdAlarmOn               = 0x23
	cmdDeleteToEndOfRow      = 0x24
	cmdRollUp2               = 0x25
	cmdRollUp3               = 0x26
	cmdRollUp4               = 0x27
	cmdFlashOn               = 0x28
	cmdResumeDirectCaption   = 0x29
	cmdTextRestart           = 0x2A
	cmdResumeTextDisplay     = 0x2B
	cmdEraseDisplayed        = 0x2C
	cmdCarriageReturn        = 0x2D
	cmdEraseNonDisplayed     = 0x2E
	cmdEndOfCaption          = 0x2F
)

var miscNames = map[byte]string{
	cmdResumeCaptionLoading: "Resume Caption Loading",
	cmdBackspace:            "Backspace",
	cmdAlarmOff:             "Reserved (Alarm Off)",
	cmdAlarmOn:              "Reserved (Alarm On)",
	cmdDeleteToEndOfRow:     "Delete to End of Row",
	cmdRollUp2:              "Roll-Up Captions-2 Rows",
	cmdRollUp3:              "Roll-Up Captions-3 Rows",
	cmdRollUp4:              "Roll-Up Captions-4 Rows",
	cmdFlashOn:              "Flash On",
	cmdResumeDirectCaption:  "Resume Direct Captioning",
	cmdTextRestart:          "Text Restart",
	cmdResumeTextDisplay:    "Resume Text Display",
	cmdEraseDisplayed:       "Erase Displayed Memory",
	cmdCarriageReturn:       "Carriage Return",
	cmdEraseNonDisplayed:    "Erase Non-Displayed Memory",
	cmdEndOfCaption:         "End of Caption (flip memory)",
}

var colorNames = [8]string{
	"White", "Green", "Blue", "Cyan", "Red", "Yellow", "Magenta", "Italics",
}

var backgroundNames = [8]string{
	"White", "Green", "Blue", "Cyan", "Red", "Yellow", "Magenta", "Black",
}

// rollUpRows maps the roll-up mode commands to their visible row count.
var rollUpRows = map[byte]int{
	cmdRollUp2: 2,
	cmdRollUp3: 3,
	cmdRollUp4: 4,
}
