// Package codec converts between database/sql driver values and the bridge's
// wire representation of bound parameters and result columns.
//
// Conventions, chosen to match what the embedded engine's driver exposes:
// booleans are stored as integer 0/1, every signed integer width widens to
// int64, float32 widens to float64, and time values are encoded as
// RFC3339Nano text.
// Text stays text on the way back out; the codec does not guess at timestamps.
package codec

import (
	"database/sql/driver"
	"time"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Encode converts a single driver value into its wire form. Encoding is total
// for the supported types; anything else is a serialization error.
func Encode(v driver.Value) (types.BoundValue, error) {
	switch val := v.(type) {
	case nil:
		return types.Null(), nil
	case bool:
		if val {
			return types.Integer(1), nil
		}
		return types.Integer(0), nil
	case int:
		return types.Integer(int64(val)), nil
	case int8:
		return types.Integer(int64(val)), nil
	case int16:
		return types.Integer(int64(val)), nil
	case int32:
		return types.Integer(int64(val)), nil
	case int64:
		return types.Integer(val), nil
	case float32:
		return types.Float(float64(val)), nil
	case float64:
		return types.Float(val), nil
	case string:
		return types.Text(val), nil
	case []byte:
		return types.Blob(val), nil
	case time.Time:
		return types.Text(val.Format(time.RFC3339Nano)), nil
	default:
		return types.BoundValue{}, types.SerializationErrorf("unsupported bind value of type %T", v)
	}
}

// EncodeArgs converts a full argument list for one statement execution.
func EncodeArgs(args []driver.Value) ([]types.BoundValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]types.BoundValue, len(args))
	for i, a := range args {
		bv, err := Encode(a)
		if err != nil {
			return nil, types.SerializationErrorf("argument %d: %s", i, err.(*types.Error).Message)
		}
		out[i] = bv
	}
	return out, nil
}

// Decode converts a wire value back into the natural driver value for its
// storage class: nil, int64, float64, string or []byte.
func Decode(v types.BoundValue) (driver.Value, error) {
	switch v.Kind {
	case types.KindNull:
		return nil, nil
	case types.KindInteger:
		return v.Int, nil
	case types.KindFloat:
		return v.Float, nil
	case types.KindText:
		return v.Text, nil
	case types.KindBlob:
		return v.Blob, nil
	default:
		return nil, types.SerializationErrorf("unknown value kind %q", v.Kind)
	}
}

// DecodeTyped decodes a wire value that the caller expects to carry a
// particular storage class. A tag mismatch is a type-mapping bug and surfaces
// as a serialization error. NULL decodes as nil regardless of the hint.
func DecodeTyped(v types.BoundValue, want types.ValueKind) (driver.Value, error) {
	if v.Kind == types.KindNull {
		return nil, nil
	}
	if v.Kind != want {
		return nil, types.SerializationErrorf("type mismatch: column holds %s, requested %s", v.Kind, want)
	}
	return Decode(v)
}

// BindArgs converts wire values into arguments for the host's database/sql
// execution calls.
func BindArgs(vs []types.BoundValue) ([]any, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		dv, err := Decode(v)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}
