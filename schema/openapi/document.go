package openapi

import (
	"fmt"
	"sort"
	"strings"
)

type documentBuilder struct {
	config     generatorConfig
	components *componentSet
	models     []modelSchema
}

func newDocumentBuilder(config generatorConfig, models []modelSchema) *documentBuilder {
	return &documentBuilder{
		config:     config,
		components: newComponentSet(),
		models:     models,
	}
}

func (b *documentBuilder) build() (map[string]any, error) {
	snapshotRefs := make([]string, 0, len(b.models))
	patchRefs := make([]string, 0, len(b.models))
	for _, model := range b.models {
		snapshotRef, patchRef := b.components.publish(model.Component, b.snapshotSchema(model), b.patchSchema(model))
		snapshotRefs = append(snapshotRefs, snapshotRef)
		patchRefs = append(patchRefs, patchRef)
	}

	pathItem := map[string]any{
		b.patchMethod(): b.patchOperation(patchRefs),
	}
	if b.config.stateEnabled {
		pathItem[b.stateMethod()] = b.stateOperation(snapshotRefs)
	}
	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.info(),
		"paths":   map[string]any{b.config.path: pathItem},
	}
	if schemas := b.components.document(); schemas != nil {
		document["components"] = map[string]any{"schemas": schemas}
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

// snapshotSchema describes the full state of a model as State returns it.
func (b *documentBuilder) snapshotSchema(model modelSchema) map[string]any {
	defaults := model.Schema.Defaults()
	props := map[string]any{}
	required := make([]string, 0, model.Schema.Len())
	for _, p := range model.Schema.Properties() {
		props[p.Name] = propertySchema(p, defaults[p.Name])
		required = append(required, p.Name)
	}
	if b.config.protocolKeys && model.ModelName != "" {
		for key, schema := range protocolSchema(model) {
			props[key] = schema
			required = append(required, key)
		}
	}
	sort.Strings(required)

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if model.ModelName != "" {
		out["x-xplot-model"] = model.ModelName
	}
	return out
}

// patchSchema describes a patch body: any subset of the declared properties.
// Unknown keys are accepted and ignored by models.
func (b *documentBuilder) patchSchema(model modelSchema) map[string]any {
	props := map[string]any{}
	for _, p := range model.Schema.Properties() {
		props[p.Name] = propertySchema(p, nil)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
}

func (b *documentBuilder) info() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *documentBuilder) patchMethod() string {
	if method := strings.ToLower(b.config.patch.Method); method != "" {
		return method
	}
	return "patch"
}

func (b *documentBuilder) stateMethod() string {
	if method := strings.ToLower(b.config.state.Method); method != "" {
		return method
	}
	return "get"
}

func (b *documentBuilder) patchOperation(patchRefs []string) map[string]any {
	responses := make(map[string]any, len(b.config.responses))
	for status, resp := range b.config.responses {
		responses[status] = map[string]any{"description": resp.Description}
	}
	operation := b.operation(b.config.patch, b.patchMethod())
	operation["requestBody"] = map[string]any{
		"required": true,
		"content": map[string]any{
			b.config.contentType: map[string]any{
				"schema": unionOf(patchRefs, map[string]any{"type": "object", "properties": map[string]any{}}),
			},
		},
	}
	operation["responses"] = responses
	return operation
}

func (b *documentBuilder) stateOperation(snapshotRefs []string) map[string]any {
	operation := b.operation(b.config.state, b.stateMethod())
	operation["responses"] = map[string]any{
		"200": map[string]any{
			"description": "Widget snapshot",
			"content": map[string]any{
				b.config.contentType: map[string]any{
					"schema": unionOf(snapshotRefs, map[string]any{"type": "object"}),
				},
			},
		},
		"404": map[string]any{"description": "Widget not found"},
	}
	return operation
}

func (b *documentBuilder) operation(cfg operationConfig, method string) map[string]any {
	operationID := cfg.OperationID
	if operationID == "" {
		operationID = fmt.Sprintf("%s:%s", method, b.config.path)
	}
	operation := map[string]any{
		"operationId": operationID,
		"parameters": []any{
			map[string]any{
				"name":        "id",
				"in":          "path",
				"required":    true,
				"description": "Widget id, as carried in IPY_MODEL_ references.",
				"schema":      map[string]any{"type": "string"},
			},
		},
	}
	if summary := strings.TrimSpace(cfg.Summary); summary != "" {
		operation["summary"] = summary
	}
	return operation
}

// unionOf references a single component directly and several through oneOf.
func unionOf(refs []string, empty map[string]any) map[string]any {
	switch len(refs) {
	case 0:
		return empty
	case 1:
		return map[string]any{"$ref": refs[0]}
	}
	items := make([]any, 0, len(refs))
	for _, ref := range refs {
		items = append(items, map[string]any{"$ref": ref})
	}
	return map[string]any{"oneOf": items}
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for path, value := range paths {
		if !strings.Contains(path, "{id}") {
			return fmt.Errorf("openapi: path %q must carry an {id} parameter", path)
		}
		item, _ := value.(map[string]any)
		if len(item) == 0 {
			return fmt.Errorf("openapi: path %q has no operations", path)
		}
		ids := map[string]bool{}
		for method, raw := range item {
			operation, _ := raw.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, path)
			}
			id, _ := operation["operationId"].(string)
			if id == "" {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, path)
			}
			if ids[id] {
				return fmt.Errorf("openapi: operationId %q used twice on %s", id, path)
			}
			ids[id] = true
			if method != "get" {
				body, _ := operation["requestBody"].(map[string]any)
				if content, _ := body["content"].(map[string]any); len(content) == 0 {
					return fmt.Errorf("openapi: operation %s %s missing request body", method, path)
				}
			}
			if responses, _ := operation["responses"].(map[string]any); len(responses) == 0 {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, path)
			}
		}
	}
	if components, ok := document["components"].(map[string]any); ok {
		schemas, _ := components["schemas"].(map[string]any)
		for name := range schemas {
			if sanitizeComponentName(name) != name {
				return fmt.Errorf("openapi: component name %q is not addressable", name)
			}
		}
	}
	return nil
}
