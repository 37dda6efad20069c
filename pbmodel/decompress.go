package pbmodel

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/egonelbre/exp-rangecoder/rangecoder"
)

// Decompress decompresses data written by Compress into msg.
// msg must be of the same type as the compressed message.
func Decompress(r io.Reader, msg proto.Message, opts ...rangecoder.Option) error {
	mb := NewModelBuilder()
	dec, err := rangecoder.NewDecoder(r, opts...)
	if err != nil {
		return err
	}

	return decompressMessage(msg.ProtoReflect(), dec, mb)
}

// decompressMessage recursively decompresses a protobuf message.
func decompressMessage(msg protoreflect.Message, dec *rangecoder.Decoder, mb *ModelBuilder) error {
	fields := msg.Descriptor().Fields()

	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)

		present, err := dec.Decode(mb.boolModel)
		if err != nil {
			return errors.Wrapf(err, "field %s presence", fd.Name())
		}
		if present == 0 {
			continue
		}

		switch {
		case fd.IsList():
			err = decompressRepeatedField(fd, msg.Mutable(fd).List(), dec, mb)
		case fd.IsMap():
			err = decompressMapField(fd, msg.Mutable(fd).Map(), dec, mb)
		case isMessage(fd):
			// Decompress into the mutable field to preserve the concrete type.
			err = decompressMessage(msg.Mutable(fd).Message(), dec, mb)
		default:
			var value protoreflect.Value
			value, err = decompressFieldValue(fd, dec, mb)
			if err == nil {
				msg.Set(fd, value)
			}
		}
		if err != nil {
			return errors.Wrapf(err, "field %s", fd.Name())
		}
	}

	return nil
}

// decompressRepeatedField decompresses a repeated field.
func decompressRepeatedField(fd protoreflect.FieldDescriptor, list protoreflect.List, dec *rangecoder.Decoder, mb *ModelBuilder) error {
	length, err := mb.varint.decode(dec)
	if err != nil {
		return errors.Wrap(err, "list length")
	}

	for i := uint64(0); i < length; i++ {
		if isMessage(fd) {
			elem := list.NewElement()
			if err := decompressMessage(elem.Message(), dec, mb); err != nil {
				return errors.Wrapf(err, "list element %d", i)
			}
			list.Append(elem)
			continue
		}

		value, err := decompressFieldValue(fd, dec, mb)
		if err != nil {
			return errors.Wrapf(err, "list element %d", i)
		}
		list.Append(value)
	}

	return nil
}

// decompressMapField decompresses a map field.
func decompressMapField(fd protoreflect.FieldDescriptor, m protoreflect.Map, dec *rangecoder.Decoder, mb *ModelBuilder) error {
	length, err := mb.varint.decode(dec)
	if err != nil {
		return errors.Wrap(err, "map length")
	}

	keyFd := fd.MapKey()
	valueFd := fd.MapValue()

	for i := uint64(0); i < length; i++ {
		key, err := decompressFieldValue(keyFd, dec, mb)
		if err != nil {
			return errors.Wrapf(err, "map key %d", i)
		}

		var value protoreflect.Value
		if isMessage(valueFd) {
			value = m.NewValue()
			err = decompressMessage(value.Message(), dec, mb)
		} else {
			value, err = decompressFieldValue(valueFd, dec, mb)
		}
		if err != nil {
			return errors.Wrapf(err, "map value %d", i)
		}

		m.Set(key.MapKey(), value)
	}

	return nil
}

// decompressFieldValue decompresses a single scalar field value.
func decompressFieldValue(fd protoreflect.FieldDescriptor, dec *rangecoder.Decoder, mb *ModelBuilder) (protoreflect.Value, error) {
	if width := rawBits(fd.Kind()); width > 0 {
		bits, err := dec.DecodeBits(width)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return fromRawValue(fd.Kind(), bits), nil
	}

	switch fd.Kind() {
	case protoreflect.BoolKind:
		b, err := dec.Decode(mb.boolModel)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBool(b == 1), nil

	case protoreflect.EnumKind:
		enumDesc := fd.Enum()
		idx, err := dec.Decode(mb.EnumModel(enumDesc))
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfEnum(enumDesc.Values().Get(idx).Number()), nil

	case protoreflect.Int32Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfInt32(int32(v)), err

	case protoreflect.Int64Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfInt64(int64(v)), err

	case protoreflect.Uint32Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfUint32(uint32(v)), err

	case protoreflect.Uint64Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfUint64(v), err

	case protoreflect.Sint32Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfInt32(int32(zigzagDecode(v))), err

	case protoreflect.Sint64Kind:
		v, err := mb.varint.decode(dec)
		return protoreflect.ValueOfInt64(zigzagDecode(v)), err

	case protoreflect.StringKind:
		s, err := rangecoder.DecodeString(dec)
		return protoreflect.ValueOfString(s), err

	case protoreflect.BytesKind:
		b, err := decodeBytes(dec, mb)
		return protoreflect.ValueOfBytes(b), err

	default:
		return protoreflect.Value{}, errors.Errorf("unsupported field kind: %v", fd.Kind())
	}
}

func decodeBytes(dec *rangecoder.Decoder, mb *ModelBuilder) ([]byte, error) {
	length, err := mb.varint.decode(dec)
	if err != nil {
		return nil, errors.Wrap(err, "bytes length")
	}

	data := make([]byte, 0, min(length, 1<<16))
	for i := uint64(0); i < length; i++ {
		b, err := dec.Decode(mb.byteModel)
		if err != nil {
			return nil, err
		}
		data = append(data, byte(b))
	}
	return data, nil
}

func fromRawValue(kind protoreflect.Kind, bits uint64) protoreflect.Value {
	switch kind {
	case protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(bits))
	case protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(bits)
	case protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(uint32(bits)))
	case protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(int64(bits))
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(math.Float32frombits(uint32(bits)))
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(math.Float64frombits(bits))
	}
	panic("not a fixed width kind: " + kind.String())
}

func isMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
}
