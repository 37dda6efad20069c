package rangecoder

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Decoder decompresses a sequence of symbols written by an Encoder.
//
// A Decoder is not safe for concurrent use. After an error the decoder
// state is undefined and it must not be used further.
type Decoder struct {
	coder
	input  io.ByteReader
	data   uint64 // Last 8 bytes read from input
	tracer Tracer
}

// NewDecoder creates a new range decoder that reads from r.
//
// r is read one byte at a time and is wrapped in a bufio.Reader unless it
// already implements io.ByteReader. The first 8 bytes are read immediately.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	var cfg config
	cfg.apply(opts)

	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	d := &Decoder{
		coder:  newCoder(),
		input:  br,
		tracer: cfg.tracer,
	}
	for i := 0; i < 8; i++ {
		if err := d.shiftInput(); err != nil {
			return nil, errors.Wrap(err, "priming")
		}
	}
	if d.tracer != nil {
		d.tracer.Step(OpStart, -1, 8, d.state())
	}
	return d, nil
}

// NewDecoderBytes creates a new range decoder over data.
func NewDecoderBytes(data []byte, opts ...Option) (*Decoder, error) {
	return NewDecoder(bytes.NewReader(data), opts...)
}

// Decode reads and returns the next symbol using the given model.
// model must be the same as the one used to encode the symbol.
func (d *Decoder) Decode(model Model) (int, error) {
	totalFreq, err := checkSymbol(model, model.MinIndex())
	if err != nil {
		return 0, err
	}

	index, err := d.search(model, totalFreq)
	if err != nil {
		return 0, err
	}

	n, err := d.advance(model.CFreq(index), model.CumFreq(index), totalFreq)
	if err != nil {
		return 0, err
	}
	if d.tracer != nil {
		d.tracer.Step(OpDecode, index, n, d.state())
	}
	return index, nil
}

// DecodeBits reads numBits raw bits written by Encoder.EncodeBits.
func (d *Decoder) DecodeBits(numBits uint) (uint64, error) {
	if numBits > 64 {
		return 0, errors.Wrapf(ErrBitWidth, "%d bits", numBits)
	}

	var value uint64
	n := 0
	for _, chunk := range bitChunks(numBits) {
		totalFreq := uint64(1) << chunk.width
		part := (d.data - d.low) / (d.rng / totalFreq)
		if part >= totalFreq {
			return 0, errors.Wrapf(ErrCorrupt, "raw chunk %d >= %d", part, totalFreq)
		}
		shifted, err := d.advance(1, part, totalFreq)
		if err != nil {
			return 0, err
		}
		n += shifted
		value |= part << chunk.shift
	}
	if d.tracer != nil {
		d.tracer.Step(OpDecodeBits, int(numBits), n, d.state())
	}
	return value, nil
}

// search finds the index whose sub-interval contains the input window.
func (d *Decoder) search(model Model, totalFreq uint64) (int, error) {
	scale := d.rng / totalFreq
	target := (d.data - d.low) / scale
	if target >= totalFreq {
		return 0, errors.Wrapf(ErrCorrupt, "target %d >= total %d", target, totalFreq)
	}

	// Invariant: left <= answer <= right.
	left, right := model.MinIndex(), model.MaxIndex()
	for left < right {
		mid := left + (right-left)/2
		if model.CumFreq(mid+1) <= target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	if model.CFreq(left) == 0 {
		return 0, errors.Wrapf(ErrZeroFrequency, "index %d", left)
	}
	return left, nil
}

// advance narrows the interval like the encoder did and reads one input
// byte for every byte the encoder wrote.
func (d *Decoder) advance(cFreq, cumFreq, totalFreq uint64) (int, error) {
	n := d.narrow(cFreq, cumFreq, totalFreq, nil)
	for i := 0; i < n; i++ {
		if err := d.shiftInput(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (d *Decoder) shiftInput() error {
	b, err := d.input.ReadByte()
	if err != nil {
		if err == io.EOF {
			return errors.WithStack(ErrTruncated)
		}
		return errors.WithStack(err)
	}
	d.data = d.data<<8 | uint64(b)
	return nil
}

func (d *Decoder) state() State {
	return State{LowerBound: d.low, Range: d.rng, Data: d.data}
}
