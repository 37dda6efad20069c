// Package pbmodel provides protobuf-specific compression using range coding.
// It builds compression models based on protobuf message structure and field types.
//
// The output carries no schema or framing: the message type used for
// decompression must be the one used for compression.
package pbmodel

import (
	"github.com/egonelbre/exp-rangecoder/rangecoder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ModelBuilder creates compression models for protobuf messages.
type ModelBuilder struct {
	boolModel  rangecoder.Model
	byteModel  rangecoder.Model
	varint     *varintByteModels
	enumModels map[protoreflect.FullName]rangecoder.Model
}

// NewModelBuilder creates a new protobuf model builder.
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{
		boolModel:  rangecoder.NewUniformModel(2), // true/false
		byteModel:  rangecoder.NewUniformModel(256),
		varint:     newVarintByteModels(),
		enumModels: make(map[protoreflect.FullName]rangecoder.Model),
	}
}

// EnumModel returns a model for the given enum type.
// Enum values are coded by their declaration index with a uniform distribution.
func (mb *ModelBuilder) EnumModel(ed protoreflect.EnumDescriptor) rangecoder.Model {
	if model, ok := mb.enumModels[ed.FullName()]; ok {
		return model
	}

	model := rangecoder.NewUniformModel(ed.Values().Len())
	mb.enumModels[ed.FullName()] = model
	return model
}

// rawBits returns the width of kinds that are written through the raw bit
// channel, or 0 for every other kind.
func rawBits(kind protoreflect.Kind) uint {
	switch kind {
	case protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind, protoreflect.FloatKind:
		return 32
	case protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		return 64
	default:
		return 0
	}
}

// zigzagEncode encodes a signed integer using zigzag encoding.
// This maps negative values to positive values: 0, -1, 1, -2, 2, ...
func zigzagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// zigzagDecode decodes a zigzag-encoded integer.
func zigzagDecode(n uint64) int64 {
	return int64((n >> 1) ^ -(n & 1))
}
