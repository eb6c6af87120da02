package encoders

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/entities"
	"line21/internal/mapper"
)

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { background: black; color: white; font-family: monospace; }
p.cue { margin: 0.5em 0; }
.i { font-style: italic; }
.u { text-decoration: underline; }
</style>
</head>
<body>
`

type HTMLEncoder struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type HTMLEncoderParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultHTMLEncoder struct {
	fx.Out
	HTMLEncoder CaptionEncoder `group:"encoders"`
}

func NewHTMLEncoder(p HTMLEncoderParams) ResultHTMLEncoder {
	return ResultHTMLEncoder{
		HTMLEncoder: &HTMLEncoder{c: p.C, l: p.L, m: p.M},
	}
}

func (e *HTMLEncoder) Match(f entities.Format) bool {
	return f == entities.FormatHTML
}

func (e *HTMLEncoder) Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(htmlHeader); err != nil {
		return fmt.Errorf("html write: %w", err)
	}
	for ev := range events {
		if ev.Kind != entities.EventCue {
			continue
		}
		if _, err := fmt.Fprintf(bw, "<p class=\"cue\" data-start=\"%s\" data-end=\"%s\">%s</p>\n",
			e.m.SRTTimecode(ev.Cue.Start),
			e.m.SRTTimecode(ev.Cue.End),
			cueHTML(ev.Cue)); err != nil {
			return fmt.Errorf("html write: %w", err)
		}
	}
	if _, err := bw.WriteString("</body>\n</html>\n"); err != nil {
		return fmt.Errorf("html write: %w", err)
	}
	return bw.Flush()
}

func cueHTML(cue *entities.Cue) string {
	var out strings.Builder
	for i, row := range cue.Rows {
		if i > 0 {
			out.WriteString("<br>")
		}
		for _, seg := range row.Segments {
			out.WriteString(segmentHTML(seg))
		}
	}
	return out.String()
}

func segmentHTML(seg entities.StyledSegment) string {
	var classes []string
	if seg.Style.Italics {
		classes = append(classes, "i")
	}
	if seg.Style.Underline {
		classes = append(classes, "u")
	}
	text := html.EscapeString(seg.Text)
	styled := seg.Style.Color != entities.White
	if len(classes) == 0 && !styled {
		return text
	}
	var attrs strings.Builder
	if len(classes) > 0 {
		fmt.Fprintf(&attrs, " class=%q", strings.Join(classes, " "))
	}
	if styled {
		fmt.Fprintf(&attrs, " style=\"color: %s\"", seg.Style.Color)
	}
	return fmt.Sprintf("<span%s>%s</span>", attrs.String(), text)
}
