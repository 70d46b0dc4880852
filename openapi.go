package statekit

import "github.com/goliatone/go-statekit/schema/openapi"

// OpenAPI describes the manager's schema as an OpenAPI document whose single
// operation accepts a state patch.
func (m *Manager) OpenAPI(opts ...openapi.Option) (map[string]any, error) {
	return openapi.Document(m.schema, opts...)
}
