package api

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

func init() {
	// Concrete types that may travel inside metadata values.
	gob.Register(time.Duration(0))
	gob.Register([]string{})
	gob.Register(map[string]any{})
}

// ActionRecord is the serialized form of an Action: metadata, content, and
// signature identity, but never the handler closure itself. The decoding
// process must independently hold a Plan with a matching registration.
type ActionRecord struct {
	ID       string
	Name     string
	Metadata map[string]any
	Content  any
	Licensed bool

	// Next is the recorded continuation chain, if any.
	Next *ActionRecord
}

// Record snapshots the action (and its continuation chain) into a
// serializable form. Values stored in metadata must be gob-encodable.
func (a *Action) Record() (*ActionRecord, error) {
	r := &ActionRecord{
		ID:       a.ID,
		Name:     a.Name(),
		Metadata: make(map[string]any),
		Content:  a.Content,
		Licensed: a.License.Get(),
	}

	for _, k := range a.Metadata.Keys() {
		if k == MetaName || k == MetaNext {
			continue
		}
		if v, ok := a.Metadata.Get(k); ok {
			r.Metadata[k] = v
		}
	}

	if v, ok := a.Metadata.Get(MetaNext); ok {
		next, ok := v.(*Action)
		if !ok {
			return nil, fmt.Errorf("metadata %q is %T, want *Action", MetaNext, v)
		}
		nr, err := next.Record()
		if err != nil {
			return nil, err
		}
		r.Next = nr
	}

	return r, nil
}

// Action rebuilds a live Action from the record, bound to plan. The
// original ID and license state are preserved.
func (r *ActionRecord) Action(plan *Plan) *Action {
	a := NewAction(r.Name, r.Content, plan)
	a.ID = r.ID
	a.License.Set(r.Licensed)

	for k, v := range r.Metadata {
		a.Metadata.Put(k, v)
	}
	if r.Next != nil {
		a.Metadata.Put(MetaNext, r.Next.Action(plan))
	}
	return a
}

// EncodeRecord serializes the record with encoding/gob.
func EncodeRecord(r *ActionRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("encode action record: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord deserializes a record produced by EncodeRecord.
func DecodeRecord(data []byte) (*ActionRecord, error) {
	var r ActionRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode action record: %w", err)
	}
	return &r, nil
}
