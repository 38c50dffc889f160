package openapi

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	componentPrefix = "#/components/schemas/"
	patchSuffix     = "Patch"
)

// componentSet collects the schemas published for each model. Every model
// contributes a snapshot component and a patch component that share a base
// name.
type componentSet struct {
	schemas map[string]map[string]any
}

func newComponentSet() *componentSet {
	return &componentSet{schemas: map[string]map[string]any{}}
}

// publish stores the pair under a free base name derived from hint and returns
// their $refs.
func (c *componentSet) publish(hint string, snapshot, patch map[string]any) (snapshotRef, patchRef string) {
	base := c.freeBase(componentBase(hint))
	c.schemas[base] = snapshot
	c.schemas[base+patchSuffix] = patch
	return componentPrefix + base, componentPrefix + base + patchSuffix
}

func (c *componentSet) freeBase(base string) string {
	taken := func(name string) bool {
		_, snapshot := c.schemas[name]
		_, patch := c.schemas[name+patchSuffix]
		return snapshot || patch
	}
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (c *componentSet) document() map[string]any {
	if len(c.schemas) == 0 {
		return nil
	}
	out := make(map[string]any, len(c.schemas))
	for name, schema := range c.schemas {
		out[name] = schema
	}
	return out
}

// componentBase turns a model name into a component name: LinearScaleModel
// becomes LinearScale. Names that are not addressable are sanitized.
func componentBase(name string) string {
	safe := sanitizeComponentName(name)
	if trimmed := strings.TrimSuffix(safe, "Model"); trimmed != "" && trimmed != "_" {
		safe = trimmed
	}
	if safe == "" {
		return "Widget"
	}
	return safe
}

var unsafeComponentChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = strings.Trim(unsafeComponentChars.ReplaceAllString(name, "_"), "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
