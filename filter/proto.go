package filter

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var protoFilterMarshal = protojson.MarshalOptions{UseProtoNames: true}

// FromProto converts a proto filter message into a Node.
// Field keys are the proto field names, enums become their value names and
// 64-bit integers become decimal strings, as protojson encodes them.
func FromProto(m proto.Message) (Node, error) {
	if lo.IsNil(m) {
		return nil, nil
	}
	data, err := protoFilterMarshal.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshal proto filter")
	}
	node, err := Decode(data)
	if err != nil {
		return nil, err
	}
	PruneMap(node)
	return node, nil
}

// FromStruct converts a filter tree carried as a google.protobuf.Struct.
func FromStruct(s *structpb.Struct) Node {
	if s == nil {
		return nil
	}
	return Node(s.AsMap())
}
