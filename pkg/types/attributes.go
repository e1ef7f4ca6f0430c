package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attributes is a free-form variant attribute map (size, color, ...) stored as jsonb.
type Attributes map[string]any

// Value marshals the map; nil maps are stored as an empty object.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(a))
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	return string(raw), nil
}

// Scan decodes a jsonb attribute map.
func (a *Attributes) Scan(value any) error {
	if value == nil {
		*a = Attributes{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("attributes: unsupported scan type %T", value)
	}
	out := Attributes{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	*a = out
	return nil
}

// Clone returns a shallow copy so snapshots do not alias the source map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
