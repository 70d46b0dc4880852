// Package openapi renders a state schema as an OpenAPI 3 document.
//
// The schema is published as a single component. Object key order is kept in
// the x-order extension because JSON objects are unordered. The document
// describes one operation whose request body is a partial state patch.
package openapi

import (
	"fmt"

	"github.com/goliatone/go-statekit/schema"
)

// OrderExtension lists the declared key order of an object schema.
const OrderExtension = "x-order"

// Document builds the OpenAPI document for s.
func Document(s *schema.Schema, opts ...Option) (map[string]any, error) {
	if s == nil || s.Root() == nil {
		return nil, fmt.Errorf("openapi: schema cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	info := map[string]any{
		"title":   cfg.info.Title,
		"version": cfg.info.Version,
	}
	if cfg.info.Description != "" {
		info["description"] = cfg.info.Description
	}

	ref := "#/components/schemas/" + cfg.component
	operation := map[string]any{
		"operationId": cfg.operationID,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				cfg.contentType: map[string]any{
					"schema": map[string]any{"$ref": ref},
				},
			},
		},
		"responses": map[string]any{
			"200": map[string]any{
				"description": "Resulting state",
				"content": map[string]any{
					cfg.contentType: map[string]any{
						"schema": map[string]any{"$ref": ref},
					},
				},
			},
		},
	}

	return map[string]any{
		"openapi": cfg.version,
		"info":    info,
		"paths": map[string]any{
			cfg.path: map[string]any{cfg.method: operation},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				cfg.component: Schema(s.Root()),
			},
		},
	}, nil
}

// Schema renders one node. Declared values become defaults.
func Schema(n *schema.Node) map[string]any {
	switch n.Kind() {
	case schema.KindNull:
		return map[string]any{"nullable": true}
	case schema.KindBool:
		return map[string]any{"type": "boolean", "default": n.Default()}
	case schema.KindNumber:
		return map[string]any{"type": numberType(n.Default()), "default": n.Default()}
	case schema.KindString:
		return map[string]any{"type": "string", "default": n.Default()}
	case schema.KindArray:
		return map[string]any{"type": "array", "items": map[string]any{}, "default": n.Default()}
	}

	out := map[string]any{"type": "object"}
	if n.IsOpen() {
		out["additionalProperties"] = true
		return out
	}
	props := make(map[string]any, len(n.Fields()))
	for _, child := range n.Fields() {
		props[child.Key()] = Schema(child)
	}
	out["properties"] = props
	out["additionalProperties"] = false
	out[OrderExtension] = n.Keys()
	return out
}

func numberType(v any) string {
	switch v.(type) {
	case float32, float64:
		return "number"
	default:
		return "integer"
	}
}
