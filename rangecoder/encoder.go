package rangecoder

import (
	"io"

	"github.com/pkg/errors"
)

// Encoder compresses a sequence of symbols using range coding.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	coder
	output   []byte
	finished bool
	tracer   Tracer
}

// NewEncoder creates a new range encoder.
func NewEncoder(opts ...Option) *Encoder {
	var cfg config
	cfg.apply(opts)

	return &Encoder{
		coder:  newCoder(),
		tracer: cfg.tracer,
	}
}

// Encode writes a symbol using the given model.
// It returns the number of bytes that became fixed by this symbol.
func (e *Encoder) Encode(model Model, index int) (int, error) {
	if e.finished {
		return 0, errors.WithStack(ErrFinished)
	}
	totalFreq, err := checkSymbol(model, index)
	if err != nil {
		return 0, err
	}

	cFreq, cumFreq := model.CFreq(index), model.CumFreq(index)
	n := e.narrow(cFreq, cumFreq, totalFreq, e.emit)
	if e.tracer != nil {
		e.tracer.Step(OpEncode, index, n, e.state())
	}
	return n, nil
}

// EncodeBits writes the low numBits bits of value without a model.
//
// The bits share the byte stream with modeled symbols; they must be read
// back with DecodeBits of the same width at the same position in the
// sequence of calls.
func (e *Encoder) EncodeBits(numBits uint, value uint64) error {
	if e.finished {
		return errors.WithStack(ErrFinished)
	}
	if numBits > 64 {
		return errors.Wrapf(ErrBitWidth, "%d bits", numBits)
	}
	if numBits < 64 && value>>numBits != 0 {
		return errors.Wrapf(ErrValueOutOfRange, "value %d in %d bits", value, numBits)
	}

	n := 0
	for _, chunk := range bitChunks(numBits) {
		part := (value >> chunk.shift) & (1<<chunk.width - 1)
		n += e.narrow(1, part, 1<<chunk.width, e.emit)
	}
	if e.tracer != nil {
		e.tracer.Step(OpEncodeBits, int(numBits), n, e.state())
	}
	return nil
}

// Finish flushes the final state and returns the complete encoded output.
// The encoder cannot be used afterwards.
func (e *Encoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errors.WithStack(ErrFinished)
	}
	e.finished = true

	for i := 0; i < 8; i++ {
		e.emit(e.shiftByte())
	}
	if e.tracer != nil {
		e.tracer.Step(OpFinish, -1, 8, e.state())
	}
	return e.output, nil
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.output) }

// WriteTo finishes the encoder and writes the output to w.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	data, err := e.Finish()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), errors.WithStack(err)
}

func (e *Encoder) emit(b byte) {
	e.output = append(e.output, b)
}

func (e *Encoder) state() State {
	return State{LowerBound: e.low, Range: e.rng}
}

// checkSymbol validates the cheap preconditions of coding index with model
// and returns the model's total frequency.
func checkSymbol(model Model, index int) (uint64, error) {
	if index < model.MinIndex() || index > model.MaxIndex() {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d not in [%d, %d]",
			index, model.MinIndex(), model.MaxIndex())
	}
	if model.CFreq(index) == 0 {
		return 0, errors.Wrapf(ErrZeroFrequency, "index %d", index)
	}
	totalFreq := TotalFreq(model)
	if totalFreq == 0 || totalFreq > MaxTotalFreq {
		return 0, errors.Wrapf(ErrTotalFreq, "total %d", totalFreq)
	}
	return totalFreq, nil
}

type bitChunk struct {
	shift uint
	width uint
}

// maxChunkBits is the widest raw chunk coded in one step; 1<<maxChunkBits
// must not exceed MaxTotalFreq.
const maxChunkBits = 16

// bitChunks splits a raw field into chunks of at most maxChunkBits,
// most significant chunk first.
func bitChunks(numBits uint) []bitChunk {
	chunks := make([]bitChunk, 0, (numBits+maxChunkBits-1)/maxChunkBits)
	for numBits > 0 {
		width := numBits % maxChunkBits
		if width == 0 {
			width = maxChunkBits
		}
		numBits -= width
		chunks = append(chunks, bitChunk{shift: numBits, width: width})
	}
	return chunks
}
