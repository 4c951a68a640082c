// Package grpcjson registers a JSON codec for gRPC so services can exchange plain Go
// structs under the "json" content-subtype. Protobuf messages (health checks,
// reflection) are still encoded with protojson.
package grpcjson

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const Name = "json"

type Codec struct{}

func init() {
	encoding.RegisterCodec(Codec{})
}

func (Codec) Name() string { return Name }

func (Codec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
