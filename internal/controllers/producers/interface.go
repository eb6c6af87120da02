// Package producers holds the field producers: each one turns a decode
// request's input into the stream of cropped top-of-frame scanline strips
// the sampler consumes.
package producers

import (
	"context"

	"line21/internal/entities"
)

type FieldProducer interface {
	// Match reports whether this producer can serve the request.
	Match(req *entities.DecodeRequest) bool
	// Produce pushes frame strips to emit until the input ends, the
	// context is canceled, or emit returns an error.
	Produce(ctx context.Context, req *entities.DecodeRequest, emit func(entities.FrameStrip) error) error
}
