package cea608

import "fmt"

// IsControl reports whether a byte pair is a two-byte control code rather
// than printable characters.
func IsControl(b1, b2 byte) bool {
	return b1 >= 0x10 && b1 <= 0x1F && b2 >= 0x20
}

// Label renders a byte pair as human-readable text for the raw and debug
// outputs: the control code's name, or the decoded characters.
func Label(b1, b2 byte) string {
	if b1 == 0 && b2 == 0 {
		return "Null"
	}
	if IsControl(b1, b2) {
		return controlLabel(b1, b2)
	}
	out := ""
	if r, ok := baseChars[b1]; ok {
		out += string(r)
	}
	if r, ok := baseChars[b2]; ok {
		out += string(r)
	}
	if out == "" {
		return fmt.Sprintf("Invalid %02x %02x", b1, b2)
	}
	return "Text: " + out
}

// Chars decodes the printable characters in a byte pair, skipping nulls
// and control bytes. XDS string payloads are decoded this way.
func Chars(b1, b2 byte) string {
	out := ""
	if r, ok := baseChars[b1]; ok {
		out += string(r)
	}
	if r, ok := baseChars[b2]; ok {
		out += string(r)
	}
	return out
}

func controlLabel(b1, b2 byte) string {
	dataCh := (b1 >> 3) & 1
	prefix := fmt.Sprintf("DC%d", dataCh+1)
	c := b1 &^ 0x08

	if b2 >= 0x40 {
		if row := pacRow(c, b2); row > 0 {
			style, indent := pacAttr(b2)
			attr := fmt.Sprintf("%v", style)
			if indent > 0 {
				attr = fmt.Sprintf("indent %d", indent)
				if style.Underline {
					attr += " underline"
				}
			}
			return fmt.Sprintf("%s Preamble: row %d %s", prefix, row, attr)
		}
		return fmt.Sprintf("Unknown PAC %02x %02x", b1, b2)
	}

	switch {
	case c == 0x10 && b2 >= 0x20 && b2 < 0x30:
		name := backgroundNames[(b2>>1)&0x07]
		if b2&1 != 0 {
			name += " Semi-transparent"
		}
		return fmt.Sprintf("%s Background: %s", prefix, name)
	case c == 0x11 && b2 >= 0x20 && b2 < 0x30:
		name := colorNames[(b2>>1)&0x07]
		if b2&1 != 0 {
			name += " Underline"
		}
		return fmt.Sprintf("%s Mid-row: %s", prefix, name)
	case c == 0x11 && b2 >= 0x30:
		return fmt.Sprintf("%s Special: %c", prefix, specialChars[b2-0x30])
	case c == 0x12 && b2 >= 0x20:
		return fmt.Sprintf("%s Extended: %c", prefix, extendedSpanishFrench[b2-0x20])
	case c == 0x13 && b2 >= 0x20:
		return fmt.Sprintf("%s Extended: %c", prefix, extendedPortugueseGermanDanish[b2-0x20])
	case (c == 0x14 || c == 0x15) && b2 < 0x30:
		if name, ok := miscNames[b2]; ok {
			return fmt.Sprintf("%s %s", prefix, name)
		}
	case c == 0x17 && b2 >= 0x21 && b2 <= 0x23:
		return fmt.Sprintf("%s Tab Offset %d", prefix, b2-0x20)
	case c == 0x17 && b2 >= 0x2D && b2 <= 0x2F:
		return fmt.Sprintf("%s Attribute %02x", prefix, b2)
	}
	return fmt.Sprintf("Unknown control %02x %02x", b1, b2)
}
