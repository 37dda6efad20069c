package pbmodel

import (
	"sync"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// sinkFile declares a message type covering every scalar kind, an enum,
// nested and repeated messages, a map and a oneof.
var sinkFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String("sink.proto"),
	Package: proto.String("sink"),
	Syntax:  proto.String("proto3"),
	EnumType: []*descriptorpb.EnumDescriptorProto{{
		Name: proto.String("Color"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: proto.String("COLOR_UNSPECIFIED"), Number: proto.Int32(0)},
			{Name: proto.String("COLOR_RED"), Number: proto.Int32(1)},
			{Name: proto.String("COLOR_BLUE"), Number: proto.Int32(7)},
		},
	}},
	MessageType: []*descriptorpb.DescriptorProto{{
		Name: proto.String("Sink"),
		Field: []*descriptorpb.FieldDescriptorProto{
			scalarField("int32_field", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
			scalarField("int64_field", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
			scalarField("uint32_field", 3, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
			scalarField("uint64_field", 4, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
			scalarField("sint32_field", 5, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
			scalarField("sint64_field", 6, descriptorpb.FieldDescriptorProto_TYPE_SINT64),
			scalarField("fixed32_field", 7, descriptorpb.FieldDescriptorProto_TYPE_FIXED32),
			scalarField("fixed64_field", 8, descriptorpb.FieldDescriptorProto_TYPE_FIXED64),
			scalarField("sfixed32_field", 9, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32),
			scalarField("sfixed64_field", 10, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64),
			scalarField("float_field", 11, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
			scalarField("double_field", 12, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
			scalarField("bool_field", 13, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
			scalarField("string_field", 14, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			scalarField("bytes_field", 15, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
			{
				Name:     proto.String("color"),
				Number:   proto.Int32(16),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
				TypeName: proto.String(".sink.Color"),
			},
			{
				Name:     proto.String("child"),
				Number:   proto.Int32(17),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
				TypeName: proto.String(".sink.Sink"),
			},
			{
				Name:     proto.String("children"),
				Number:   proto.Int32(18),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
				TypeName: proto.String(".sink.Sink"),
			},
			{
				Name:   proto.String("numbers"),
				Number: proto.Int32(19),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:   descriptorpb.FieldDescriptorProto_TYPE_SINT64.Enum(),
			},
			{
				Name:   proto.String("words"),
				Number: proto.Int32(20),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
			},
			{
				Name:     proto.String("counts"),
				Number:   proto.Int32(21),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
				TypeName: proto.String(".sink.Sink.CountsEntry"),
			},
			{
				Name:       proto.String("note"),
				Number:     proto.Int32(22),
				Label:      descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:       descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				OneofIndex: proto.Int32(0),
			},
			{
				Name:       proto.String("code"),
				Number:     proto.Int32(23),
				Label:      descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:       descriptorpb.FieldDescriptorProto_TYPE_UINT32.Enum(),
				OneofIndex: proto.Int32(0),
			},
		},
		NestedType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("CountsEntry"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("key", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("value", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
			},
			Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
		}},
		OneofDecl: []*descriptorpb.OneofDescriptorProto{
			{Name: proto.String("detail")},
		},
	}},
}

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

var (
	sinkOnce       sync.Once
	sinkDescriptor protoreflect.MessageDescriptor
	sinkErr        error
)

// newSink returns an empty dynamic Sink message.
func newSink(tb testing.TB) *dynamicpb.Message {
	tb.Helper()
	sinkOnce.Do(func() {
		fd, err := protodesc.NewFile(sinkFile, nil)
		if err != nil {
			sinkErr = err
			return
		}
		sinkDescriptor = fd.Messages().ByName("Sink")
	})
	if sinkErr != nil {
		tb.Fatalf("building sink descriptor: %v", sinkErr)
	}
	return dynamicpb.NewMessage(sinkDescriptor)
}

// set assigns a field by name.
func set(m protoreflect.Message, name string, v protoreflect.Value) {
	m.Set(m.Descriptor().Fields().ByName(protoreflect.Name(name)), v)
}

// mutable returns the mutable composite value of a field by name.
func mutable(m protoreflect.Message, name string) protoreflect.Value {
	return m.Mutable(m.Descriptor().Fields().ByName(protoreflect.Name(name)))
}

// fullSink returns a Sink with every field populated.
func fullSink(tb testing.TB) *dynamicpb.Message {
	tb.Helper()
	m := newSink(tb)
	set(m, "int32_field", protoreflect.ValueOfInt32(-12345))
	set(m, "int64_field", protoreflect.ValueOfInt64(-9876543210))
	set(m, "uint32_field", protoreflect.ValueOfUint32(12345))
	set(m, "uint64_field", protoreflect.ValueOfUint64(9876543210))
	set(m, "sint32_field", protoreflect.ValueOfInt32(-100))
	set(m, "sint64_field", protoreflect.ValueOfInt64(-200))
	set(m, "fixed32_field", protoreflect.ValueOfUint32(42))
	set(m, "fixed64_field", protoreflect.ValueOfUint64(84))
	set(m, "sfixed32_field", protoreflect.ValueOfInt32(-42))
	set(m, "sfixed64_field", protoreflect.ValueOfInt64(-84))
	set(m, "float_field", protoreflect.ValueOfFloat32(3.14159))
	set(m, "double_field", protoreflect.ValueOfFloat64(2.71828182845))
	set(m, "bool_field", protoreflect.ValueOfBool(true))
	set(m, "string_field", protoreflect.ValueOfString("The quick brown fox jumps over the lazy dog."))
	set(m, "bytes_field", protoreflect.ValueOfBytes([]byte{0x00, 0x01, 0xFE, 0xFF}))
	set(m, "color", protoreflect.ValueOfEnum(7))
	set(m, "note", protoreflect.ValueOfString("oneof member"))

	child := mutable(m, "child").Message()
	set(child, "string_field", protoreflect.ValueOfString("nested"))
	set(child, "uint32_field", protoreflect.ValueOfUint32(1))

	children := mutable(m, "children").List()
	for i := 0; i < 3; i++ {
		elem := children.NewElement()
		set(elem.Message(), "int32_field", protoreflect.ValueOfInt32(int32(i+1)))
		set(elem.Message(), "color", protoreflect.ValueOfEnum(1))
		children.Append(elem)
	}

	numbers := mutable(m, "numbers").List()
	for _, n := range []int64{1, -2, 3, -400000, 0} {
		numbers.Append(protoreflect.ValueOfInt64(n))
	}

	words := mutable(m, "words").List()
	for _, w := range []string{"hello", "world", "", "Ünïcödé ☃"} {
		words.Append(protoreflect.ValueOfString(w))
	}

	counts := mutable(m, "counts").Map()
	for k, v := range map[string]int32{"alpha": 1, "beta": -2, "gamma": 300} {
		counts.Set(protoreflect.ValueOfString(k).MapKey(), protoreflect.ValueOfInt32(v))
	}

	return m
}
