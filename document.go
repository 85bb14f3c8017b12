package fusex

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	goclone "github.com/huandu/go-clone"
)

// Document is the JSON projection of an item: object keys follow the item's
// JSON field names and numbers are kept as json.Number.
type Document = map[string]any

// NewDocument projects v into a Document. It returns a nil Document without
// error when v encodes to something other than a JSON object.
func NewDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal item")
	}
	return decodeDocument(data)
}

func decodeDocument(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode item")
	}
	return doc, nil
}

// clone returns a deep copy of v that shares no mutable state with it.
// Unexported struct fields are copied too.
func clone[V any](v V) (out V, err error) {
	var boxed any = v
	if boxed == nil {
		return out, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrClone, "%v", r)
		}
	}()

	copied, ok := goclone.Clone(boxed).(V)
	if !ok {
		return out, errors.Wrapf(ErrClone, "unexpected copy type for %T", v)
	}
	return copied, nil
}
