package xplot

import (
	"time"

	"github.com/goliatone/go-xplot/pkg/activity"
)

// Widget is the contract every synchronized model satisfies. ApplyPatch merges a
// partial JSON object into the model and State returns a full snapshot.
type Widget interface {
	ID() string
	ModelName() string
	ViewName() string
	ApplyPatch(patch map[string]any) error
	State() map[string]any
}

// ModuleInfo names the frontend module that renders a model.
type ModuleInfo struct {
	Module  string
	Version string
}

const (
	// DefaultModule is the frontend package that implements every model here.
	DefaultModule = "bqplot"
	// DefaultModuleVersion is the semver range announced to the frontend.
	DefaultModuleVersion = "^0.3.0"
)

// DefaultModuleInfo returns the module metadata used when none is configured.
func DefaultModuleInfo() ModuleInfo {
	return ModuleInfo{Module: DefaultModule, Version: DefaultModuleVersion}
}

// Protocol keys present in every snapshot. They are owned by the model and
// cannot be patched.
const (
	KeyModelName          = "_model_name"
	KeyViewName           = "_view_name"
	KeyModelModule        = "_model_module"
	KeyModelModuleVersion = "_model_module_version"
	KeyViewModule         = "_view_module"
	KeyViewModuleVersion  = "_view_module_version"
)

var protocolKeys = map[string]struct{}{
	KeyModelName:          {},
	KeyViewName:           {},
	KeyModelModule:        {},
	KeyModelModuleVersion: {},
	KeyViewModule:         {},
	KeyViewModuleVersion:  {},
}

// IsProtocolKey reports whether key is one of the read-only protocol keys.
func IsProtocolKey(key string) bool {
	_, ok := protocolKeys[key]
	return ok
}

// EnumMode selects how enum values outside the declared set are handled.
type EnumMode int

const (
	// EnumStrict rejects the whole patch.
	EnumStrict EnumMode = iota
	// EnumIgnore drops the offending key and applies the rest of the patch.
	EnumIgnore
)

func (m EnumMode) String() string {
	switch m {
	case EnumIgnore:
		return "ignore"
	default:
		return "strict"
	}
}

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a property schema into a schema document. All
// implementations MUST be safe for concurrent use and handle nil inputs by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// SchemaOwner is implemented by values that carry a declarative schema.
type SchemaOwner interface {
	PropertySchema() *Schema
}

// RuleContext carries inputs needed when evaluating an expression. Model and
// ID name the widget the expression runs against; both are bound as variables.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Model    string
	ID       string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	switch {
	case ctx.Model != "" && ctx.ID != "":
		return ctx.Model + "(" + ctx.ID + ")"
	case ctx.Model != "":
		return ctx.Model
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	label string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithRuleLabel names a compiled rule. The label replaces the widget scope in
// evaluation errors raised by that rule.
func WithRuleLabel(label string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.label = label
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	var cfg compileConfig
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

func (cfg compileConfig) scope(ctx RuleContext) string {
	if cfg.label != "" {
		return cfg.label
	}
	return ctx.scopeLabel()
}

// Option configures a Model at construction.
type Option func(*modelConfig)

type modelConfig struct {
	id               string
	module           ModuleInfo
	enumMode         EnumMode
	resolver         Resolver
	presets          []*Stack
	constraints      []constraintSpec
	evaluator        Evaluator
	programCache     ProgramCache
	functions        *FunctionRegistry
	patchLogger      PatchLogger
	evalLogger       EvaluatorLogger
	schemaGenerator  SchemaGenerator
	activityHooks    activity.Hooks
	activityChannel  string
	activityNotebook string
}

func applyOptions(opts []Option) modelConfig {
	cfg := modelConfig{module: DefaultModuleInfo()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
