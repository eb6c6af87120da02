package entities

import "fmt"

// DecodeRequest describes one decode run: where the fields come from and
// which outputs to render.
type DecodeRequest struct {
	// Input is the video file handed to the producer. Anything ffmpeg
	// understands, or a pre-extracted raw luma strip (.gray).
	Input string
	// OutputBase is the output path without extension. Empty writes the
	// single selected format to stdout.
	OutputBase string
	Formats    []Format
}

// Valid reports request errors.
func (r *DecodeRequest) Valid() error {
	if r == nil || r.Input == "" {
		return ErrMissingInput
	}
	if len(r.Formats) == 0 {
		return ErrUnknownFormat
	}
	if r.OutputBase == "" && len(r.Formats) > 1 {
		return ErrStdoutSingleFormat
	}
	return nil
}

func (r *DecodeRequest) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("DecodeRequest %s formats %v", r.Input, r.Formats)
}

// Wants reports whether the request selected the format.
func (r *DecodeRequest) Wants(f Format) bool {
	for _, have := range r.Formats {
		if have == f {
			return true
		}
	}
	return false
}
