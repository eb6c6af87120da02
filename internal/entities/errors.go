package entities

import "errors"

var ErrMissingInput = errors.New("input video must not be empty")
var ErrUnknownFormat = errors.New("unknown output format")
var ErrStdoutSingleFormat = errors.New("stdout output allows a single format, use -o for more")

var ErrInvalidLineRange = errors.New("invalid scan-line range")
var ErrUnsupportedFrameRate = errors.New("unsupported frame rate, use 29.97 or 25")
var ErrInvalidCalibration = errors.New("invalid calibration")

var ErrMissingProducer = errors.New("there is no producer for the input")
var ErrMissingEncoder = errors.New("there is no encoder for the format")
var ErrNoFramesProcessed = errors.New("producer ended before any frame was processed")

var ErrFFmpeg = errors.New("ffmpeg error")
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found")
var ErrShortFrame = errors.New("short frame read from producer")
