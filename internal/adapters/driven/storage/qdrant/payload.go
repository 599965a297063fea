package qdrant

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// pointID derives the stable UUID point ID for a chunk ID.
func pointID(chunkID string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{
		Uuid: uuid.NewSHA1(pointNamespace, []byte(chunkID)).String(),
	}}
}

// validate checks a batch the way the in-process indexes do and returns
// the batch dimension.
func validate(dim int, records []driven.VectorRecord) (int, error) {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return 0, domain.IndexError(fmt.Errorf("%w: record %d has an empty id", domain.ErrInvalidInput, i))
		}
		if _, dup := seen[r.ID]; dup {
			return 0, domain.IndexError(fmt.Errorf("%w: duplicate id %q in batch", domain.ErrInvalidInput, r.ID))
		}
		seen[r.ID] = struct{}{}

		if len(r.Vector) == 0 {
			return 0, domain.IndexError(fmt.Errorf("%w: record %q has an empty vector", domain.ErrInvalidInput, r.ID))
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return 0, domain.IndexError(fmt.Errorf("%w: record %q has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim))
		}
		if err := r.Metadata.Validate(); err != nil {
			return 0, domain.IndexError(err)
		}
	}
	return dim, nil
}

// toPayload converts a record's metadata, ID and text into a point payload.
func toPayload(r driven.VectorRecord) (map[string]*pb.Value, error) {
	payload := make(map[string]*pb.Value, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", k, err)
		}
		payload[k] = val
	}
	payload[payloadID] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: r.ID}}
	payload[payloadText] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: r.Text}}
	return payload, nil
}

// fromPayload rebuilds a hit from a point payload.
func fromPayload(payload map[string]*pb.Value) driven.VectorHit {
	hit := driven.VectorHit{Metadata: make(domain.Metadata, len(payload))}
	for k, v := range payload {
		switch k {
		case payloadID:
			hit.ID = v.GetStringValue()
		case payloadText:
			hit.Text = v.GetStringValue()
		default:
			if val, ok := fromValue(v); ok {
				hit.Metadata[k] = val
			}
		}
	}
	return hit
}

func toValue(v any) (*pb.Value, error) {
	switch t := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: t}}, nil
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: t}}, nil
	}
	if i, ok := asInt64(v); ok {
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: i}}, nil
	}
	if f, ok := toFloat64(v); ok {
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %T", domain.ErrInvalidInput, v)
}

func fromValue(v *pb.Value) (any, bool) {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue, true
	case *pb.Value_BoolValue:
		return k.BoolValue, true
	case *pb.Value_IntegerValue:
		return k.IntegerValue, true
	case *pb.Value_DoubleValue:
		return k.DoubleValue, true
	default:
		return nil, false
	}
}

// buildFilter turns an equality filter into a Qdrant must-filter.
// Fractional numbers match through a closed range on the value.
func buildFilter(filter domain.Metadata) *pb.Filter {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]*pb.Condition, 0, len(keys))
	for _, k := range keys {
		must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: fieldCondition(k, filter[k])}})
	}
	return &pb.Filter{Must: must}
}

func fieldCondition(key string, v any) *pb.FieldCondition {
	fc := &pb.FieldCondition{Key: key}
	switch t := v.(type) {
	case string:
		fc.Match = &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: t}}
		return fc
	case bool:
		fc.Match = &pb.Match{MatchValue: &pb.Match_Boolean{Boolean: t}}
		return fc
	}
	if i, ok := asInt64(v); ok {
		fc.Match = &pb.Match{MatchValue: &pb.Match_Integer{Integer: i}}
		return fc
	}
	f, _ := toFloat64(v)
	fc.Range = &pb.Range{Gte: &f, Lte: &f}
	return fc
}

// asInt64 accepts integer types and whole floats.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		if n == float32(int64(n)) {
			return int64(n), true
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
