package pbmodel

import (
	"github.com/pkg/errors"

	"github.com/egonelbre/exp-rangecoder/rangecoder"
)

// varintByteModels holds position-specific byte models for varint encoding.
type varintByteModels struct {
	firstByteModel rangecoder.Model // Model for first byte of varint
	contByteModel  rangecoder.Model // Model for continuation bytes
}

func newVarintByteModels() *varintByteModels {
	return &varintByteModels{
		firstByteModel: createVarintFirstByteModel(),
		contByteModel:  createVarintContinuationByteModel(),
	}
}

func createVarintFirstByteModel() rangecoder.Model {
	freqs := make([]uint64, 256)

	// Terminal bytes: favor smaller values, they're more common in practice.
	for i := 0; i < 128; i++ {
		freqs[i] = 200 - uint64(i)
	}
	// More bytes follow.
	for i := 128; i < 256; i++ {
		freqs[i] = 15
	}

	return rangecoder.NewFrequencyTable(freqs)
}

func createVarintContinuationByteModel() rangecoder.Model {
	freqs := make([]uint64, 256)
	for i := 0; i < 128; i++ {
		freqs[i] = 100
	}
	for i := 128; i < 256; i++ {
		freqs[i] = 50
	}
	return rangecoder.NewFrequencyTable(freqs)
}

func (vm *varintByteModels) byteModel(byteIndex int) rangecoder.Model {
	if byteIndex == 0 {
		return vm.firstByteModel
	}
	return vm.contByteModel
}

// encode writes value as base-128 groups, least significant first.
func (vm *varintByteModels) encode(enc *rangecoder.Encoder, value uint64) error {
	for i := 0; ; i++ {
		b := value & 0x7F
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		if _, err := enc.Encode(vm.byteModel(i), int(b)); err != nil {
			return err
		}
		if value == 0 {
			return nil
		}
	}
}

func (vm *varintByteModels) decode(dec *rangecoder.Decoder) (uint64, error) {
	var result uint64
	var shift uint

	for byteIndex := 0; ; byteIndex++ {
		b, err := dec.Decode(vm.byteModel(byteIndex))
		if err != nil {
			return 0, err
		}

		if shift == 63 && b > 1 {
			return 0, errors.Wrap(rangecoder.ErrCorrupt, "varint overflows 64 bits")
		}
		result |= uint64(b&0x7F) << shift
		if b < 128 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.Wrap(rangecoder.ErrCorrupt, "varint too long")
		}
	}
}
