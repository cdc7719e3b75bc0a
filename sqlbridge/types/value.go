package types

// ValueKind tags a BoundValue with the storage class it carries. The set
// mirrors SQLite's fundamental types; engines with richer type systems map
// onto these five classes at the codec layer.
type ValueKind string

const (
	KindNull    ValueKind = "null"
	KindInteger ValueKind = "integer"
	KindFloat   ValueKind = "float"
	KindText    ValueKind = "text"
	KindBlob    ValueKind = "blob"
)

// BoundValue is the wire representation of one bound parameter or one result
// column: a tagged union over {null, integer, float, text, blob}. Exactly the
// field selected by Kind is meaningful. Blob bytes ride as base64 under JSON
// encoding, so binary data survives the boundary without escaping issues; the
// field is never elided so a zero-length blob stays distinct from NULL.
type BoundValue struct {
	Kind  ValueKind `json:"kind"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
	Text  string    `json:"text,omitempty"`
	Blob  []byte    `json:"blob"`
}

func Null() BoundValue           { return BoundValue{Kind: KindNull} }
func Integer(v int64) BoundValue { return BoundValue{Kind: KindInteger, Int: v} }
func Float(v float64) BoundValue { return BoundValue{Kind: KindFloat, Float: v} }
func Text(v string) BoundValue   { return BoundValue{Kind: KindText, Text: v} }
func Blob(v []byte) BoundValue   { return BoundValue{Kind: KindBlob, Blob: v} }

// IsNull reports whether the value carries SQL NULL.
func (v BoundValue) IsNull() bool { return v.Kind == KindNull }
