// Package xds renders eXtended Data Services packets as human-readable
// one-liners for the xds output format.
package xds

import (
	"fmt"
	"strings"

	"line21/internal/cea608"
	"line21/internal/entities"
)

// XDS class bytes (odd value starts a packet, the even value above it
// continues one).
const (
	ClassCurrent     = 0x01
	ClassFuture      = 0x03
	ClassChannel     = 0x05
	ClassMisc        = 0x07
	ClassPublic      = 0x09
	ClassReserved    = 0x0B
	ClassPrivateData = 0x0D
)

var genreNames = map[byte]string{
	0x20: "Education", 0x21: "Entertainment", 0x22: "Movie", 0x23: "News", 0x24: "Religious",
	0x25: "Sports", 0x26: "Other", 0x27: "Action", 0x28: "Advertisement", 0x29: "Animated",
	0x2A: "Anthology", 0x2B: "Automobile", 0x2C: "Awards", 0x2D: "Baseball", 0x2E: "Basketball",
	0x2F: "Bulletin", 0x30: "Business", 0x31: "Classical", 0x32: "College", 0x33: "Combat",
	0x34: "Comedy", 0x35: "Commentary", 0x36: "Concert", 0x37: "Consumer", 0x38: "Contemporary",
	0x39: "Crime", 0x3A: "Dance", 0x3B: "Documentary", 0x3C: "Drama", 0x3D: "Elementary",
	0x3E: "Erotica", 0x3F: "Exercise", 0x40: "Fantasy", 0x41: "Farm", 0x42: "Fashion",
	0x43: "Fiction", 0x44: "Food", 0x45: "Football", 0x46: "Foreign", 0x47: "Fund Raiser",
	0x48: "Game/Quiz", 0x49: "Garden", 0x4A: "Golf", 0x4B: "Government", 0x4C: "Health",
	0x4D: "High School", 0x4E: "History", 0x4F: "Hobby", 0x50: "Hockey", 0x51: "Home",
	0x52: "Horror", 0x53: "Information", 0x54: "Instruction", 0x55: "International", 0x56: "Interview",
	0x57: "Language", 0x58: "Legal", 0x59: "Live", 0x5A: "Local", 0x5B: "Math",
	0x5C: "Medical", 0x5D: "Meeting", 0x5E: "Military", 0x5F: "Miniseries", 0x60: "Music",
	0x61: "Mystery", 0x62: "National", 0x63: "Nature", 0x64: "Police", 0x65: "Politics",
	0x66: "Premier", 0x67: "Prerecorded", 0x68: "Product", 0x69: "Professional", 0x6A: "Public",
	0x6B: "Racing", 0x6C: "Reading", 0x6D: "Repair", 0x6E: "Repeat", 0x6F: "Review",
	0x70: "Romance", 0x71: "Science", 0x72: "Series", 0x73: "Service", 0x74: "Shopping",
	0x75: "Soap", 0x76: "Special", 0x77: "Suspense", 0x78: "Talk", 0x79: "Technical",
	0x7A: "Tennis", 0x7B: "Travel", 0x7C: "Variety", 0x7D: "Video", 0x7E: "Weather",
	0x7F: "Western",
}

var (
	mpaRatings        = [8]string{"N/A", "G", "PG", "PG-13", "R", "NC-17", "X", "Not Rated"}
	usTVRatings       = [8]string{"Not rated", "TV-Y", "TV-Y7", "TV-G", "TV-PG", "TV-14", "TV-MA", "Not rated"}
	canadianEnglish   = [8]string{"E", "C", "C8+", "G", "PG", "14+", "18+", "Invalid"}
	canadianFrench    = [8]string{"E", "G", "8 ans +", "13 ans +", "16 ans +", "18 ans +", "Invalid", "Invalid"}
	audioLanguages    = [8]string{"Unknown", "English", "Spanish", "French", "German", "Italian", "Other", "None"}
	audioTypesMain    = [8]string{"Unknown", "Mono", "Simulated Stereo", "Stereo", "Stereo Surround", "Data Service", "Other", "None"}
	audioTypesSAP     = [8]string{"Unknown", "Mono", "Video Descriptions", "Non-program Audio", "Special Effects", "Data Service", "Other", "None"}
	cgmsCopying       = [4]string{"Copying is permitted without restriction", "Condition not to be used", "One generation of copies may be made", "No copying is permitted"}
	cgmsAPS           = [4]string{"No Analogue protection", "Analogue protection: PSP On; Split Burst Off", "Analogue protection: PSP On; 2 line Split Burst On", "Analogue protection: PSP On; 4 line Split Burst On"}
	captionServices   = [8]string{"field one, channel C1, captioning", "field one, channel C1, Text", "field one, channel C2, captioning", "field one, channel C2, Text", "field two, channel C1, captioning", "field two, channel C1, Text", "field two, channel C2, captioning", "field two, channel C2, Text"}
	monthAbbreviation = [13]string{"--", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	dayAbbreviation   = [8]string{"--", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

// Describe renders a packet the way the xds output prints it. Invalid
// packets are reported, not decoded.
func Describe(p entities.XDSPacket) string {
	if !p.Valid {
		return "XDS Rejected Packet - Incorrect Checksum"
	}
	switch p.Class {
	case ClassCurrent, 0x02:
		return describeProgram("Current", p.Type, p.Payload)
	case ClassFuture, 0x04:
		return describeProgram("Next Program", p.Type, p.Payload)
	case ClassChannel, 0x06:
		return describeChannel(p.Type, p.Payload)
	case ClassMisc, 0x08:
		return describeMisc(p.Type, p.Payload)
	case ClassPublic, 0x0A:
		return describePublic(p.Type, p.Payload)
	}
	return fmt.Sprintf("Could not decode ---> XDS describes: %02x %02x", p.Class, p.Type)
}

func describeProgram(pref string, typ byte, b []byte) string {
	switch {
	case typ == 0x01 && len(b) >= 4:
		delayed := ""
		if b[3]&0x10 != 0 {
			delayed = " (Tape Delayed)"
		}
		return fmt.Sprintf("XDS %s Scheduled Start Time: %02d:%02d on Day %02d of Month %02d%s",
			pref, b[1]&0x1F, b[0]&0x3F, b[2]&0x1F, b[3]&0x0F, delayed)
	case typ == 0x02 && len(b) >= 2:
		msg := fmt.Sprintf("XDS %s Length of Show: %02d:%02d", pref, b[1]&0x3F, b[0]&0x3F)
		if len(b) >= 4 {
			seconds := 0
			if len(b) >= 5 {
				seconds = int(b[4] & 0x3F)
			}
			msg += fmt.Sprintf(" XDS %s Elapsed time: %02d:%02d:%02d", pref, b[3]&0x3F, b[2]&0x3F, seconds)
		}
		return msg
	case typ == 0x03:
		return fmt.Sprintf("XDS %s Program Name: %s", pref, decodeString(b))
	case typ == 0x04:
		var genres []string
		for _, g := range b {
			if name, ok := genreNames[g]; ok {
				genres = append(genres, name)
			}
		}
		return "XDS Program Genre: " + strings.Join(genres, " ")
	case typ == 0x05 && len(b) >= 2:
		return describeContentAdvisory(b[0], b[1])
	case typ == 0x06 && len(b) >= 2:
		return fmt.Sprintf("XDS Audio Services: Main:%s(%s) Sap:%s(%s)",
			audioLanguages[(b[0]>>3)&7], audioTypesMain[b[0]&7],
			audioLanguages[(b[1]>>3)&7], audioTypesSAP[b[1]&7])
	case typ == 0x07:
		var svcs []string
		for _, s := range b {
			if s&0x40 != 0 {
				svcs = append(svcs, captionServices[s&7])
			}
		}
		return "XDS Caption Services: " + strings.Join(svcs, "; ")
	case typ == 0x08 && len(b) >= 1:
		return fmt.Sprintf("XDS Copy protection: %s %s", cgmsCopying[(b[0]>>3)&3], cgmsAPS[(b[0]>>1)&3])
	case typ == 0x09 && len(b) >= 2:
		anamorphic := ""
		if len(b) >= 3 && b[2]&1 != 0 {
			anamorphic = " Anamorphic"
		}
		return fmt.Sprintf("XDS Aspect Ratio: start line: %d end line: %d%s",
			22+int(b[0]&0x3F), 262-int(b[1]&0x3F), anamorphic)
	case typ == 0x0C:
		return fmt.Sprintf("Composite packet 1 %d", len(b))
	case typ == 0x0D:
		return fmt.Sprintf("Composite packet 2 %d", len(b))
	case typ >= 0x10 && typ <= 0x17:
		return fmt.Sprintf("XDS Program description line: %d :%s", typ-0x0F, decodeString(b))
	}
	return fmt.Sprintf("Could not decode ---> XDS describes: program type %02x", typ)
}

func describeChannel(typ byte, b []byte) string {
	switch typ {
	case 0x01:
		return "XDS Channel Name: " + decodeString(b)
	case 0x02:
		return "XDS Channel Station Call-Sign: " + decodeString(b)
	case 0x03:
		if len(b) >= 2 {
			return fmt.Sprintf("XDS Channel Tape Delay: %02d:%02d", b[1]&0x1F, b[0]&0x3F)
		}
	}
	return fmt.Sprintf("Could not decode ---> XDS describes: channel type %02x", typ)
}

func describeMisc(typ byte, b []byte) string {
	switch {
	case typ == 0x01 && len(b) >= 6:
		return "XDS Time of day (UTC): " + describeTimeOfDay(b)
	case typ == 0x04 && len(b) >= 1:
		dst := "S"
		add := 0
		if b[0]&0x20 != 0 {
			dst = "D"
			add = 1
		}
		// Hours are transmitted as the offset west of UTC.
		return fmt.Sprintf("XDS Local Time Zone: TZ %d%s", 24-int(b[0]&0x1F)+add, dst)
	}
	return fmt.Sprintf("Could not decode ---> XDS describes: misc type %02x", typ)
}

func describePublic(typ byte, b []byte) string {
	switch typ {
	case 0x01:
		return fmt.Sprintf("XDS Public Service - WRSAME message: % 02x", b)
	case 0x02:
		return "XDS Public Service - Weather: " + decodeString(b)
	}
	return fmt.Sprintf("Could not decode ---> XDS describes: public type %02x", typ)
}

func describeTimeOfDay(b []byte) string {
	dst, zero, delayed, leap := "S", "_", "S", "A"
	if b[1]&0x20 != 0 {
		dst = "D"
	}
	if b[3]&0x20 != 0 {
		zero = "Z"
	}
	if b[3]&0x10 != 0 {
		delayed = "T"
	}
	if b[2]&0x20 != 0 {
		leap = "L"
	}
	month := monthAbbreviation[0]
	if m := b[3] & 0x0F; m >= 1 && m <= 12 {
		month = monthAbbreviation[m]
	}
	day := dayAbbreviation[0]
	if d := b[4] & 0x0F; d >= 1 && d <= 7 {
		day = dayAbbreviation[d]
	}
	return fmt.Sprintf("TM %02d:%02d%s %s%s%s %s %02d %d %s",
		b[1]&0x1F, b[0]&0x3F, dst, zero, delayed, leap,
		month, b[2]&0x1F, 1990+int(b[5]&0x3F), day)
}

func describeContentAdvisory(ca1, ca2 byte) string {
	system := (ca1 >> 3) & 3
	var rating string
	switch system {
	case 0, 2:
		rating = mpaRatings[ca1&7]
	case 1:
		code := ca1 & 7
		rating = usTVRatings[code]
		switch {
		case code == 2 && ca2&0x20 != 0:
			rating += " Fantasy Violence"
		case code >= 4 && code <= 6:
			if ca2&0x20 != 0 {
				rating += " Violence"
			}
			if ca2&0x10 != 0 {
				rating += " Sexual Situations"
			}
			if ca2&0x08 != 0 {
				rating += " Adult Language"
			}
			if ca1&0x20 != 0 {
				rating += " Sexually Suggestive Dialogue"
			}
		}
	case 3:
		sub := (ca1>>5)&1 | (ca2>>2)&2
		switch sub {
		case 1:
			rating = canadianEnglish[ca2&7]
		case 2:
			rating = canadianFrench[ca2&7]
		default:
			rating = fmt.Sprintf("International reserved code (%#02x, %#02x)", ca1, ca2)
		}
	}
	return "XDS Rating: " + rating
}

func decodeString(b []byte) string {
	var out strings.Builder
	for i := 0; i+1 < len(b); i += 2 {
		out.WriteString(cea608.Chars(b[i], b[i+1]))
	}
	if len(b)%2 != 0 {
		out.WriteString(cea608.Chars(b[len(b)-1], 0))
	}
	return out.String()
}
