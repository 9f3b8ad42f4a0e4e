package sqlite

import "encoding/json"

// entityJSON represents one entity in entities.jsonl. Properties stay raw so
// that loading and persisting never reinterpret stored values.
type entityJSON struct {
	Key        string          `json:"key"`
	Kind       string          `json:"kind"`
	Properties json.RawMessage `json:"properties"`
}
