// Package rangecoder implements a byte-oriented range coder.
//
// The coder keeps a 64-bit lower bound and range and narrows them by the
// probability of every coded symbol. Bytes leave the encoder as soon as they
// can no longer change, so output is never revisited for carries. Probability
// models are supplied by the caller for every symbol; the decoder must be
// driven with the same sequence of models as the encoder.
//
// The output has no header or length. The caller is responsible for knowing
// how many symbols to decode and with which models.
package rangecoder

import "fmt"

// MaxTotalFreq is the largest total frequency a Model may have.
//
// Renormalization keeps the range at or above 2^48, so a total of at most
// 2^16 leaves at least 32 bits of precision for every symbol.
const MaxTotalFreq = 1 << 16

// Model defines the probability distribution of a single coded symbol.
//
// For every valid index, CumFreq(i+1) == CumFreq(i) + CFreq(i), and
// every index in [MinIndex(), MaxIndex()] must be valid. A model must not
// change between encoding a symbol and decoding it.
type Model interface {
	// CFreq returns the frequency of index.
	CFreq(index int) uint64

	// CumFreq returns the sum of frequencies of all indices below index.
	CumFreq(index int) uint64

	// MinIndex returns the first valid index.
	MinIndex() int

	// MaxIndex returns the last valid index.
	MaxIndex() int
}

// TotalFreq returns the sum of all frequencies of m.
func TotalFreq(m Model) uint64 {
	last := m.MaxIndex()
	return m.CumFreq(last) + m.CFreq(last)
}

// UniformModel implements a model where all symbols have equal probability.
type UniformModel struct {
	numSymbols int
}

// NewUniformModel creates a uniform probability model with symbols [0, numSymbols).
func NewUniformModel(numSymbols int) *UniformModel {
	if numSymbols <= 0 {
		panic("numSymbols must be positive")
	}
	if numSymbols > MaxTotalFreq {
		panic(fmt.Sprintf("numSymbols must be at most %d", MaxTotalFreq))
	}
	return &UniformModel{numSymbols: numSymbols}
}

func (m *UniformModel) CFreq(index int) uint64   { return 1 }
func (m *UniformModel) CumFreq(index int) uint64 { return uint64(index) }
func (m *UniformModel) MinIndex() int            { return 0 }
func (m *UniformModel) MaxIndex() int            { return m.numSymbols - 1 }
func (m *UniformModel) SymbolCount() int         { return m.numSymbols }

// FrequencyTable implements a model with custom symbol frequencies.
type FrequencyTable struct {
	cumFreqs []uint64 // cumFreqs[i] = sum of freqs[0..i-1]
}

// NewFrequencyTable creates a model from the given symbol frequencies.
// Symbol i has weight frequencies[i].
func NewFrequencyTable(frequencies []uint64) *FrequencyTable {
	if len(frequencies) == 0 {
		panic("frequencies must not be empty")
	}

	cumFreqs := make([]uint64, len(frequencies)+1)
	var total uint64
	for i, freq := range frequencies {
		if freq == 0 {
			panic("frequency must be positive")
		}
		total += freq
		cumFreqs[i+1] = total
	}
	if total > MaxTotalFreq {
		panic(fmt.Sprintf("total frequency %d exceeds %d", total, MaxTotalFreq))
	}

	return &FrequencyTable{cumFreqs: cumFreqs}
}

// NewHistogram creates a model from the symbol counts of data.
//
// Every index in [0, maxIndex] gets at least frequency 1, so symbols absent
// from data remain encodable. Counts are scaled down when their sum exceeds
// MaxTotalFreq. Symbols outside [0, maxIndex] are ignored.
func NewHistogram(data []int, maxIndex int) *FrequencyTable {
	if maxIndex < 0 {
		panic("maxIndex must not be negative")
	}
	if maxIndex >= MaxTotalFreq {
		panic(fmt.Sprintf("maxIndex must be below %d", MaxTotalFreq))
	}

	counts := make([]uint64, maxIndex+1)
	for _, symbol := range data {
		if symbol < 0 || symbol > maxIndex {
			continue
		}
		counts[symbol]++
	}

	return NewFrequencyTable(normalizeCounts(counts))
}

// normalizeCounts converts raw counts into frequencies that are all positive
// and sum to at most MaxTotalFreq.
func normalizeCounts(counts []uint64) []uint64 {
	var total uint64
	for i, c := range counts {
		if c == 0 {
			counts[i] = 1
			c = 1
		}
		total += c
	}

	if total > MaxTotalFreq {
		// Every symbol keeps one unit; the rest is shared proportionally.
		budget := uint64(MaxTotalFreq - len(counts))
		excess := total - uint64(len(counts))
		for i, c := range counts {
			counts[i] = 1 + (c-1)*budget/excess
		}
	}

	return counts
}

func (ft *FrequencyTable) CFreq(index int) uint64 {
	return ft.cumFreqs[index+1] - ft.cumFreqs[index]
}

func (ft *FrequencyTable) CumFreq(index int) uint64 { return ft.cumFreqs[index] }
func (ft *FrequencyTable) MinIndex() int            { return 0 }
func (ft *FrequencyTable) MaxIndex() int            { return len(ft.cumFreqs) - 2 }

// SymbolCount returns the number of symbols in the table.
func (ft *FrequencyTable) SymbolCount() int { return len(ft.cumFreqs) - 1 }
