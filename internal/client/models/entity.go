package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// OrderField is the wire name of the order index.
const OrderField = "order"

// Entity is a single record of a resource. Fields holds every scalar field
// other than id and order, flattened to strings.
type Entity struct {
	// ID is the stable identifier; placeholders use a local temporary id.
	ID string

	// Order is the 1-based position for order-aware resources, 0 otherwise.
	Order int

	Fields map[string]string
}

// Get returns the value of a field; "order" is served from Order.
func (e Entity) Get(name string) string {
	if name == OrderField {
		if e.Order == 0 {
			return ""
		}
		return strconv.Itoa(e.Order)
	}
	return e.Fields[name]
}

// Clone returns a deep copy of e.
func (e Entity) Clone() Entity {
	c := e
	c.Fields = maps.Clone(e.Fields)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	return c
}

// CloneAll deep-copies a slice of entities.
func CloneAll(items []Entity) []Entity {
	if items == nil {
		return nil
	}
	out := make([]Entity, len(items))
	for i, e := range items {
		out[i] = e.Clone()
	}
	return out
}

func (e Entity) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["id"] = e.ID
	if e.Order != 0 {
		m[OrderField] = e.Order
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts numeric or string ids and orders. Scalars become
// strings; nested objects and arrays are kept as compact JSON text.
func (e *Entity) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := Entity{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		s, err := scalar(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		switch k {
		case "id", "_id":
			if out.ID == "" || k == "id" {
				out.ID = s
			}
		case OrderField:
			if s == "" {
				continue
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("order %q: %w", s, err)
			}
			out.Order = n
		default:
			out.Fields[k] = s
		}
	}
	*e = out
	return nil
}

func scalar(raw json.RawMessage) (string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
