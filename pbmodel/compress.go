package pbmodel

import (
	"bytes"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/egonelbre/exp-rangecoder/rangecoder"
)

// Compress compresses a protobuf message using range coding and writes the
// result to w.
func Compress(msg proto.Message, w io.Writer, opts ...rangecoder.Option) error {
	mb := NewModelBuilder()
	enc := rangecoder.NewEncoder(opts...)

	if err := compressMessage(msg.ProtoReflect(), enc, mb); err != nil {
		return err
	}

	_, err := enc.WriteTo(w)
	return err
}

// compressMessage recursively compresses a protobuf message.
// Every declared field is preceded by a presence bit.
func compressMessage(msg protoreflect.Message, enc *rangecoder.Encoder, mb *ModelBuilder) error {
	fields := msg.Descriptor().Fields()

	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)

		if !msg.Has(fd) {
			if _, err := enc.Encode(mb.boolModel, 0); err != nil {
				return errors.Wrapf(err, "field %s presence", fd.Name())
			}
			continue
		}
		if _, err := enc.Encode(mb.boolModel, 1); err != nil {
			return errors.Wrapf(err, "field %s presence", fd.Name())
		}

		value := msg.Get(fd)

		var err error
		switch {
		case fd.IsList():
			err = compressRepeatedField(fd, value.List(), enc, mb)
		case fd.IsMap():
			err = compressMapField(fd, value.Map(), enc, mb)
		default:
			err = compressFieldValue(fd, value, enc, mb)
		}
		if err != nil {
			return errors.Wrapf(err, "field %s", fd.Name())
		}
	}

	return nil
}

// compressRepeatedField compresses a repeated field.
func compressRepeatedField(fd protoreflect.FieldDescriptor, list protoreflect.List, enc *rangecoder.Encoder, mb *ModelBuilder) error {
	length := list.Len()
	if err := mb.varint.encode(enc, uint64(length)); err != nil {
		return errors.Wrap(err, "list length")
	}

	for i := 0; i < length; i++ {
		if err := compressFieldValue(fd, list.Get(i), enc, mb); err != nil {
			return errors.Wrapf(err, "list element %d", i)
		}
	}

	return nil
}

// compressMapField compresses a map field.
// Entries are written in key order so that equal messages compress to equal bytes.
func compressMapField(fd protoreflect.FieldDescriptor, m protoreflect.Map, enc *rangecoder.Encoder, mb *ModelBuilder) error {
	if err := mb.varint.encode(enc, uint64(m.Len())); err != nil {
		return errors.Wrap(err, "map length")
	}

	keyFd := fd.MapKey()
	valueFd := fd.MapValue()

	for _, k := range sortedMapKeys(keyFd.Kind(), m) {
		if err := compressFieldValue(keyFd, k.Value(), enc, mb); err != nil {
			return errors.Wrap(err, "map key")
		}
		if err := compressFieldValue(valueFd, m.Get(k), enc, mb); err != nil {
			return errors.Wrapf(err, "map value %v", k)
		}
	}

	return nil
}

func sortedMapKeys(kind protoreflect.Kind, m protoreflect.Map) []protoreflect.MapKey {
	keys := make([]protoreflect.MapKey, 0, m.Len())
	m.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].Value(), keys[j].Value()
		switch kind {
		case protoreflect.StringKind:
			return a.String() < b.String()
		case protoreflect.BoolKind:
			return !a.Bool() && b.Bool()
		case protoreflect.Uint32Kind, protoreflect.Uint64Kind,
			protoreflect.Fixed32Kind, protoreflect.Fixed64Kind:
			return a.Uint() < b.Uint()
		default:
			return a.Int() < b.Int()
		}
	})
	return keys
}

// compressFieldValue compresses a single field value.
func compressFieldValue(fd protoreflect.FieldDescriptor, value protoreflect.Value, enc *rangecoder.Encoder, mb *ModelBuilder) error {
	if width := rawBits(fd.Kind()); width > 0 {
		return enc.EncodeBits(width, rawValue(fd.Kind(), value))
	}

	switch fd.Kind() {
	case protoreflect.BoolKind:
		b := 0
		if value.Bool() {
			b = 1
		}
		_, err := enc.Encode(mb.boolModel, b)
		return err

	case protoreflect.EnumKind:
		// Encode enum as its index in the enum descriptor
		enumDesc := fd.Enum()
		enumValueDesc := enumDesc.Values().ByNumber(value.Enum())
		if enumValueDesc == nil {
			return errors.Errorf("unknown enum value: %d", value.Enum())
		}
		_, err := enc.Encode(mb.EnumModel(enumDesc), enumValueDesc.Index())
		return err

	case protoreflect.Int32Kind, protoreflect.Int64Kind:
		return mb.varint.encode(enc, uint64(value.Int()))

	case protoreflect.Uint32Kind, protoreflect.Uint64Kind:
		return mb.varint.encode(enc, value.Uint())

	case protoreflect.Sint32Kind, protoreflect.Sint64Kind:
		return mb.varint.encode(enc, zigzagEncode(value.Int()))

	case protoreflect.StringKind:
		return rangecoder.EncodeString(enc, value.String())

	case protoreflect.BytesKind:
		return encodeBytes(enc, mb, value.Bytes())

	case protoreflect.MessageKind, protoreflect.GroupKind:
		return compressMessage(value.Message(), enc, mb)

	default:
		return errors.Errorf("unsupported field kind: %v", fd.Kind())
	}
}

func encodeBytes(enc *rangecoder.Encoder, mb *ModelBuilder, data []byte) error {
	if err := mb.varint.encode(enc, uint64(len(data))); err != nil {
		return errors.Wrap(err, "bytes length")
	}
	for _, b := range data {
		if _, err := enc.Encode(mb.byteModel, int(b)); err != nil {
			return err
		}
	}
	return nil
}

// rawValue returns the bit pattern of a fixed width value.
func rawValue(kind protoreflect.Kind, value protoreflect.Value) uint64 {
	switch kind {
	case protoreflect.Fixed32Kind, protoreflect.Fixed64Kind:
		return value.Uint()
	case protoreflect.Sfixed32Kind:
		return uint64(uint32(int32(value.Int())))
	case protoreflect.Sfixed64Kind:
		return uint64(value.Int())
	case protoreflect.FloatKind:
		return uint64(math.Float32bits(float32(value.Float())))
	case protoreflect.DoubleKind:
		return math.Float64bits(value.Float())
	}
	panic("not a fixed width kind: " + kind.String())
}

// CompressedBytes returns the output of Compress for msg.
func CompressedBytes(msg proto.Message, opts ...rangecoder.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Compress(msg, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
