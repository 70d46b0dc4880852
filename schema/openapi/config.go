package openapi

import "strings"

type config struct {
	version     string
	info        Info
	path        string
	method      string
	operationID string
	contentType string
	component   string
}

// Info is the OpenAPI info block.
type Info struct {
	Title       string
	Version     string
	Description string
}

func defaultConfig() config {
	return config{
		version:     "3.0.3",
		info:        Info{Title: "State", Version: "1.0.0"},
		path:        "/state",
		method:      "patch",
		operationID: "patchState",
		contentType: "application/json",
		component:   "State",
	}
}

// Option configures Document.
type Option func(*config)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) Option {
	return func(cfg *config) {
		if version != "" {
			cfg.version = version
		}
	}
}

// WithInfo sets the info block. Empty title or version keep the defaults.
func WithInfo(info Info) Option {
	return func(cfg *config) {
		if info.Title != "" {
			cfg.info.Title = info.Title
		}
		if info.Version != "" {
			cfg.info.Version = info.Version
		}
		cfg.info.Description = info.Description
	}
}

// WithOperation sets the path, method and operationId of the patch operation.
func WithOperation(path, method, operationID string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.path = path
		}
		if method != "" {
			cfg.method = strings.ToLower(method)
		}
		if operationID != "" {
			cfg.operationID = operationID
		}
	}
}

// WithComponent names the schema component (default: State).
func WithComponent(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.component = name
		}
	}
}
