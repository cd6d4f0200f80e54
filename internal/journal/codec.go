package journal

import (
	"bytes"
	"encoding/gob"
)

// encodeValue serializes an arbitrary result value with encoding/gob.
// Values are encoded behind an interface so decodeValue can recover them
// without knowing the concrete type up front. Callers must ensure values
// are gob-encodable.
func encodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	iv := v
	if err := gob.NewEncoder(&buf).Encode(&iv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeValue reverses encodeValue. Empty input yields nil.
func decodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var iv any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&iv); err != nil {
		return nil, err
	}
	return iv, nil
}
