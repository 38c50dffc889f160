package openapi

import (
	"strings"
)

// generatorConfig describes the widget endpoint a document advertises: one
// path addressing a widget by id, a write operation taking a patch body and an
// optional read operation returning the snapshot.
type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	path           string
	patch          operationConfig
	state          operationConfig
	stateEnabled   bool
	contentType    string
	responses      map[string]responseConfig
	rootComponent  string
	protocolKeys   bool
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

type operationConfig struct {
	Method      string
	OperationID string
	Summary     string
}

type responseConfig struct {
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: openapiInfo{
			Title:   "xplot widgets",
			Version: "0.3.0",
		},
		path: "/widgets/{id}",
		patch: operationConfig{
			Method:      "patch",
			OperationID: "patchWidget",
			Summary:     "Apply a state patch",
		},
		state: operationConfig{
			Method:      "get",
			OperationID: "getWidgetState",
			Summary:     "Read the widget snapshot",
		},
		stateEnabled: true,
		contentType:  "application/json",
		responses: map[string]responseConfig{
			"204": {Description: "Patch applied"},
			"404": {Description: "Widget not found"},
			"422": {Description: "Patch rejected"},
		},
		rootComponent: "Widget",
		protocolKeys:  true,
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version = strings.TrimSpace(version); version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// InfoOption configures optional fields on the OpenAPI info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the description of the info section.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo sets the document title and version. Empty strings keep the
// defaults.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// OperationOption configures optional operation metadata.
type OperationOption func(*operationConfig)

// WithOperationSummary sets the summary of an operation.
func WithOperationSummary(summary string) OperationOption {
	return func(operation *operationConfig) {
		operation.Summary = summary
	}
}

// WithOperation sets the widget path and the method and operationId of the
// patch operation. The path must keep an {id} parameter. Empty inputs keep the
// defaults.
func WithOperation(path, method, operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.path = path
		}
		if method != "" {
			cfg.patch.Method = strings.ToLower(method)
		}
		if operationID != "" {
			cfg.patch.OperationID = operationID
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.patch)
			}
		}
	}
}

// WithStateOperation renames the snapshot read operation.
func WithStateOperation(operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.stateEnabled = true
		if operationID != "" {
			cfg.state.OperationID = operationID
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.state)
			}
		}
	}
}

// WithoutStateOperation leaves the snapshot read operation out of the path.
func WithoutStateOperation() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.stateEnabled = false
	}
}

// WithContentType sets the media type of patch bodies and snapshots.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType = strings.TrimSpace(contentType); contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithResponse adds or overrides a response of the patch operation.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]responseConfig{}
		}
		resp := cfg.responses[status]
		if description != "" {
			resp.Description = description
		}
		cfg.responses[status] = resp
	}
}

// WithRootComponent names the component of a bare schema, which carries no
// model name of its own (default: Widget).
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if name = strings.TrimSpace(name); name != "" {
			cfg.rootComponent = name
		}
	}
}

// WithoutProtocolKeys leaves the read-only protocol keys out of snapshot
// components.
func WithoutProtocolKeys() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.protocolKeys = false
	}
}
