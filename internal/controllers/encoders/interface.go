// Package encoders holds the output encoders. Each one consumes its own
// copy of the finalized event stream and writes one delivery format; the
// engine runs the selected encoders concurrently.
package encoders

import (
	"context"
	"io"

	"line21/internal/entities"
)

type CaptionEncoder interface {
	// Match reports whether this encoder produces the given format.
	Match(f entities.Format) bool
	// Encode drains the event stream into w. It returns once the stream
	// closes or the writer fails.
	Encode(ctx context.Context, events <-chan entities.DecodeEvent, w io.Writer) error
}
