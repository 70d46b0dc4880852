package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-statekit/schema"
)

// Envelope is the persisted form of a state snapshot.
type Envelope struct {
	SnapshotID string         `json:"snapshot_id"`
	Role       Role           `json:"role"`
	ProviderID string         `json:"provider_id,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
	State      map[string]any `json:"state"`
}

// NewEnvelope stamps state with a fresh snapshot id and timestamp.
func NewEnvelope(role Role, providerID string, state map[string]any) Envelope {
	return Envelope{
		SnapshotID: uuid.NewString(),
		Role:       role,
		ProviderID: providerID,
		UpdatedAt:  time.Now().UTC(),
		State:      state,
	}
}

// Encode renders the envelope as JSON.
func (e Envelope) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("storage: encode envelope: %w", err)
	}
	return string(raw), nil
}

// DecodeEnvelope parses raw and converts numbers back to the kinds declared
// by s. Undeclared numbers decode as float64. A nil schema skips coercion.
func DecodeEnvelope(raw string, s *schema.Schema) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("storage: decode envelope: %w", err)
	}
	if env.State == nil {
		env.State = map[string]any{}
	}
	var root *schema.Node
	if s != nil {
		root = s.Root()
	}
	env.State = coerceMap(env.State, root)
	return env, nil
}

func coerceMap(m map[string]any, node *schema.Node) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		child, _ := node.Child(key)
		out[key] = coerce(value, child)
	}
	return out
}

func coerce(value any, node *schema.Node) any {
	switch typed := value.(type) {
	case json.Number:
		return coerceNumber(typed, declaredType(node))
	case map[string]any:
		if node.IsObject() && !node.IsOpen() {
			return coerceMap(typed, node)
		}
		return coerceMap(typed, nil)
	case []any:
		return coerceSlice(typed, declaredType(node))
	default:
		return value
	}
}

func declaredType(node *schema.Node) reflect.Type {
	if node == nil {
		return nil
	}
	def := node.Default()
	if def == nil {
		return nil
	}
	return reflect.TypeOf(def)
}

func coerceNumber(n json.Number, target reflect.Type) any {
	if target != nil {
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if i, err := n.Int64(); err == nil {
				return reflect.ValueOf(i).Convert(target).Interface()
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if i, err := n.Int64(); err == nil && i >= 0 {
				return reflect.ValueOf(i).Convert(target).Interface()
			}
		case reflect.Float32, reflect.Float64:
			if f, err := n.Float64(); err == nil {
				return reflect.ValueOf(f).Convert(target).Interface()
			}
		}
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}

// coerceSlice rebuilds a JSON array as the declared slice type when every
// element converts, and as []any otherwise.
func coerceSlice(items []any, target reflect.Type) any {
	generic := make([]any, len(items))
	for i, item := range items {
		generic[i] = coerce(item, nil)
	}
	if target == nil || target.Kind() != reflect.Slice {
		return generic
	}
	elem := target.Elem()
	if elem.Kind() == reflect.Interface {
		return generic
	}
	out := reflect.MakeSlice(target, len(items), len(items))
	for i, item := range items {
		var converted any
		if n, ok := item.(json.Number); ok {
			converted = coerceNumber(n, elem)
		} else {
			converted = item
		}
		v := reflect.ValueOf(converted)
		if !assignable(v, elem) {
			return generic
		}
		out.Index(i).Set(v.Convert(elem))
	}
	return out.Interface()
}

// assignable reports whether v can be stored in a slice of elem without
// losing information. Numbers must already have the exact type.
func assignable(v reflect.Value, elem reflect.Type) bool {
	if !v.IsValid() {
		return false
	}
	if v.Type() == elem {
		return true
	}
	if kindFamily(v.Kind()) == "number" {
		return false
	}
	return v.Type().ConvertibleTo(elem) && kindFamily(v.Kind()) == kindFamily(elem.Kind())
}

func kindFamily(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	default:
		return strings.ToLower(k.String())
	}
}
