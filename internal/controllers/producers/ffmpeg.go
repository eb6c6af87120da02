package producers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/asticode/go-astikit"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/entities"
	"line21/internal/mapper"
)

// FFmpegProducer runs an external ffmpeg process that scales the input to
// 720 samples wide, crops the top-of-frame scanlines and streams them as
// raw 8-bit grayscale over stdout, one strip per frame.
type FFmpegProducer struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type FFmpegProducerParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultFFmpegProducer struct {
	fx.Out
	FFmpegProducer FieldProducer `group:"producers"`
}

func NewFFmpegProducer(p FFmpegProducerParams) ResultFFmpegProducer {
	return ResultFFmpegProducer{
		FFmpegProducer: &FFmpegProducer{c: p.C, l: p.L, m: p.M},
	}
}

func (p *FFmpegProducer) Match(req *entities.DecodeRequest) bool {
	// Anything ffmpeg can open; the raw-strip producer claims its own
	// extension first.
	return !strings.HasSuffix(req.Input, ".gray")
}

// filterChain is the ffmpeg -vf argument: nearest-neighbor scale keeps the
// waveform edges sharp, crop takes the configured scanline window, and
// deinterlaced input is re-interlaced so both fields land in the strip.
func (p *FFmpegProducer) filterChain() string {
	var b strings.Builder
	if p.c.FFmpegPreScale != "" {
		b.WriteString(p.c.FFmpegPreScale)
		b.WriteString(",")
	}
	fmt.Fprintf(&b, "scale=%d:-1:flags=neighbor,crop=iw:%d:0:%d",
		p.c.FrameWidth, p.c.LineCount, p.c.StartLine)
	if p.c.Deinterlaced {
		b.WriteString(",interlace=lowpass=off")
	}
	return b.String()
}

func (p *FFmpegProducer) Produce(ctx context.Context, req *entities.DecodeRequest, emit func(entities.FrameStrip) error) error {
	ffmpeg, err := exec.LookPath(p.c.FFmpegPath)
	if err != nil {
		return fmt.Errorf("%w: %s", entities.ErrFFmpegNotFound, p.c.FFmpegPath)
	}

	closer := astikit.NewCloser()
	defer closer.Close()

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-i", req.Input,
		"-vf", p.filterChain(),
		"-pix_fmt", "gray",
		"-f", "rawvideo",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %s", entities.ErrFFmpeg, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %s", entities.ErrFFmpeg, err)
	}

	p.l.Infow("starting ffmpeg", "path", ffmpeg, "input", req.Input, "filter", p.filterChain())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start: %s", entities.ErrFFmpeg, err)
	}
	closer.Add(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	})

	// ffmpeg chatters on stderr; keep the tail for error reporting.
	tail := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(stderr)
		lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
		if len(lines) > 4 {
			lines = lines[len(lines)-4:]
		}
		tail <- strings.Join(lines, "\n")
	}()

	emitErr := p.readStrips(ctx, stdout, emit)

	waitErr := cmd.Wait()
	stderrTail := <-tail

	if emitErr != nil {
		return emitErr
	}
	if waitErr != nil && ctx.Err() == nil {
		p.l.Errorw("ffmpeg exited with error", "error", waitErr, "stderr", stderrTail)
		return fmt.Errorf("%w: %s", entities.ErrFFmpeg, waitErr)
	}
	return ctx.Err()
}

func (p *FFmpegProducer) readStrips(ctx context.Context, r io.Reader, emit func(entities.FrameStrip) error) error {
	stripSize := p.c.FrameWidth * p.c.LineCount
	buf := make([]byte, stripSize)
	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// A torn final frame: the stream died mid-strip. Everything
			// before it already went downstream.
			return fmt.Errorf("%w: frame %d", entities.ErrShortFrame, frame)
		}
		if err != nil {
			return fmt.Errorf("%w: read: %s", entities.ErrFFmpeg, err)
		}
		rows := make([][]byte, p.c.LineCount)
		for i := range rows {
			rows[i] = append([]byte(nil), buf[i*p.c.FrameWidth:(i+1)*p.c.FrameWidth]...)
		}
		strip := entities.FrameStrip{
			Frame: frame,
			PTS:   p.m.FramePTS(frame),
			Width: p.c.FrameWidth,
			Rows:  rows,
		}
		if err := emit(strip); err != nil {
			return err
		}
	}
}
