package session

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"time"
)

// Codec converts a session mapping to and from the stored blob.
type Codec interface {
	Marshal(data Map) ([]byte, error)
	Unmarshal(blob []byte) (Map, error)
}

// CodecByName resolves the codec names accepted in Config.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "gob":
		return GobCodec{}, nil
	default:
		return nil, fmt.Errorf("session: unknown codec %q", name)
	}
}

// JSONCodec stores the mapping as a JSON object. Integral numbers decode as
// int64 and other numbers as float64; nested objects decode as map[string]any.
type JSONCodec struct{}

func (JSONCodec) Marshal(data Map) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(data))
}

func (JSONCodec) Unmarshal(blob []byte) (Map, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return Map{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("session: trailing data after JSON object")
	}
	if raw == nil {
		return Map{}, nil
	}

	for k, v := range raw {
		raw[k] = normalizeJSON(v)
	}
	return Map(raw), nil
}

func normalizeJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeJSON(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeJSON(inner)
		}
		return t
	default:
		return v
	}
}

// GobCodec stores the mapping with encoding/gob, keeping concrete scalar
// types. Custom types stored in a session must be registered with gob.Register.
type GobCodec struct{}

func init() {
	gob.Register(map[string]any{})
	gob.Register(Map{})
	gob.Register([]any{})
	gob.Register(time.Time{})
}

func (GobCodec) Marshal(data Map) ([]byte, error) {
	if data == nil {
		data = Map{}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(map[string]any(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(blob []byte) (Map, error) {
	if len(blob) == 0 {
		return Map{}, nil
	}
	var raw map[string]any
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return Map{}, nil
	}
	return Map(raw), nil
}
