package rangecoder

import "github.com/pkg/errors"

// ValidateModel checks every invariant of m that the coder relies on.
//
// Encode and Decode only check the coded index and the total frequency,
// so models built at runtime should be validated once before use.
func ValidateModel(m Model) error {
	first, last := m.MinIndex(), m.MaxIndex()
	if last < first {
		return errors.Wrapf(ErrEmptyModel, "index range [%d, %d]", first, last)
	}

	var cum uint64
	for i := first; i <= last; i++ {
		if m.CumFreq(i) != cum {
			return errors.Wrapf(ErrNotCumulative, "index %d: cumulative %d, expected %d",
				i, m.CumFreq(i), cum)
		}
		freq := m.CFreq(i)
		if freq == 0 {
			return errors.Wrapf(ErrZeroFrequency, "index %d", i)
		}
		cum += freq
		if cum > MaxTotalFreq {
			return errors.Wrapf(ErrTotalFreq, "total exceeds %d at index %d", MaxTotalFreq, i)
		}
	}

	if total := TotalFreq(m); total != cum {
		return errors.Wrapf(ErrNotCumulative, "total %d, expected %d", total, cum)
	}
	return nil
}
