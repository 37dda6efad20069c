package rangecoder

import "math"

const (
	// top8 is the weight of the top byte of the registers.
	top8 uint64 = 1 << (64 - 8)
	// top16 is the lower limit of the range after renormalization.
	top16 uint64 = 1 << (64 - 16)
)

// coder holds the interval [low, low+rng) shared by the encoder and decoder.
type coder struct {
	low uint64 // Lower bound of the current interval
	rng uint64 // Width of the current interval
}

func newCoder() coder {
	return coder{low: 0, rng: math.MaxUint64}
}

// narrow shrinks the interval to the sub-interval of a symbol and
// renormalizes. Every byte that becomes fixed is passed to emit, which may
// be nil. It returns the number of bytes shifted out.
func (c *coder) narrow(cFreq, cumFreq, totalFreq uint64, emit func(byte)) int {
	scale := c.rng / totalFreq
	c.rng = scale * cFreq
	c.low += scale * cumFreq

	n := 0
	for {
		// The top byte is the same across the whole interval.
		for c.low^(c.low+c.rng) < top8 {
			b := c.shiftByte()
			if emit != nil {
				emit(b)
			}
			n++
		}

		if c.rng >= top16 {
			return n
		}

		// The interval straddles a top byte boundary and is too narrow to
		// resolve it. Drop the part above the next 2^48 boundary so the top
		// byte gets fixed. low is never 2^48 aligned here, otherwise the
		// loop above would have drained it.
		c.rng = -c.low & (top16 - 1)
		b := c.shiftByte()
		if emit != nil {
			emit(b)
		}
		n++
	}
}

// shiftByte removes and returns the top byte of the registers.
func (c *coder) shiftByte() byte {
	b := byte(c.low >> (64 - 8))
	c.rng <<= 8
	c.low <<= 8
	return b
}
