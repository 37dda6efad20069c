package rangecoder

import "github.com/pkg/errors"

var (
	// ErrIndexOutOfRange is returned when a symbol index is outside [MinIndex, MaxIndex].
	ErrIndexOutOfRange = errors.New("rangecoder: symbol index out of range")
	// ErrZeroFrequency is returned when a symbol to be coded has no probability mass.
	ErrZeroFrequency = errors.New("rangecoder: symbol frequency is zero")
	// ErrTotalFreq is returned when a model's total frequency is zero or exceeds MaxTotalFreq.
	ErrTotalFreq = errors.New("rangecoder: total frequency out of range")
	// ErrNotCumulative is returned by ValidateModel when CumFreq does not
	// accumulate CFreq.
	ErrNotCumulative = errors.New("rangecoder: cumulative frequency mismatch")
	// ErrEmptyModel is returned by ValidateModel when MaxIndex < MinIndex.
	ErrEmptyModel = errors.New("rangecoder: model has no symbols")

	// ErrBitWidth is returned when a raw bit width exceeds 64.
	ErrBitWidth = errors.New("rangecoder: raw bit width out of range")
	// ErrValueOutOfRange is returned when a raw value does not fit in the requested width.
	ErrValueOutOfRange = errors.New("rangecoder: raw value does not fit bit width")

	// ErrFinished is returned when the encoder is used after Finish.
	ErrFinished = errors.New("rangecoder: encoder already finished")
	// ErrTruncated is returned when the decoder runs out of input.
	ErrTruncated = errors.New("rangecoder: truncated stream")
	// ErrCorrupt is returned when the decoder window lies outside the coded interval.
	// This happens with damaged input or when the decoder is driven with
	// different models than the encoder.
	ErrCorrupt = errors.New("rangecoder: corrupt stream")
)
