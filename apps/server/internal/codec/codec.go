// Package codec moves game state and wire envelopes between Go values and
// protobuf Struct values built only from maps, lists and primitives.
package codec

import (
	"encoding/json"
	"fmt"

	"cardtable-lite/game"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToMap flattens v through its JSON form. Players are referenced by id only,
// so the result carries no cycles.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes m into out, the inverse of ToMap.
func FromMap(m map[string]any, out any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ToStruct encodes a game state as a structpb.Struct.
func ToStruct(s *game.State) (*structpb.Struct, error) {
	if s == nil {
		return nil, fmt.Errorf("nil state")
	}
	m, err := ToMap(s)
	if err != nil {
		return nil, fmt.Errorf("flatten state %s: %w", s.ID, err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a state produced by ToStruct.
func FromStruct(st *structpb.Struct) (*game.State, error) {
	var s game.State
	if err := FromMap(st.AsMap(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalState is the binary snapshot format used by the stores.
func MarshalState(s *game.State) ([]byte, error) {
	st, err := ToStruct(s)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func UnmarshalState(data []byte) (*game.State, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromStruct(&st)
}

// EncodeEnvelope renders a wire envelope. Binary frames carry the protobuf
// encoding, text frames the JSON mapping of the same Struct.
func EncodeEnvelope(env map[string]any, binary bool) ([]byte, error) {
	st, err := structpb.NewStruct(env)
	if err != nil {
		return nil, err
	}
	if binary {
		return proto.Marshal(st)
	}
	return protojson.Marshal(st)
}

func DecodeEnvelope(data []byte, binary bool) (map[string]any, error) {
	var st structpb.Struct
	var err error
	if binary {
		err = proto.Unmarshal(data, &st)
	} else {
		err = protojson.Unmarshal(data, &st)
	}
	if err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}
