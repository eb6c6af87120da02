package entities

import "time"

// EventKind discriminates DecodeEvent payloads.
type EventKind int

const (
	// EventBytePair carries every synchronized byte pair, valid or not.
	EventBytePair EventKind = iota
	// EventNoSignal marks a frame where no field carried a data burst.
	EventNoSignal
	// EventCue carries a finalized caption cue.
	EventCue
	// EventText carries Text-service characters as they stream in.
	EventText
	// EventXDS carries a closed XDS packet.
	EventXDS
	// EventTrace carries a state-machine trace line for the debug dump.
	EventTrace
)

// DecodeEvent is the immutable unit fanned out to the output encoders once
// the pipeline has finalized it. Only the fields relevant to Kind are set.
type DecodeEvent struct {
	Kind     EventKind
	Frame    int
	PTS      time.Duration
	BytePair *BytePair
	// Label is the human-readable decode of the byte pair (control-code
	// name or printable text), used by the raw and debug dumps.
	Label   string
	Cue     *Cue
	Channel ChannelID
	Text    string
	Trace   string
	XDS     *XDSPacket
}
