package xplot

import "strings"

// WithID fixes the model identifier instead of generating a UUID.
func WithID(id string) Option {
	return func(cfg *modelConfig) {
		cfg.id = strings.TrimSpace(id)
	}
}

// WithModule overrides the frontend module metadata. Empty fields keep the
// defaults.
func WithModule(module ModuleInfo) Option {
	return func(cfg *modelConfig) {
		if module.Module != "" {
			cfg.module.Module = module.Module
		}
		if module.Version != "" {
			cfg.module.Version = module.Version
		}
	}
}

// WithEnumMode selects how out-of-set enum values are handled.
func WithEnumMode(mode EnumMode) Option {
	return func(cfg *modelConfig) {
		cfg.enumMode = mode
	}
}

// WithResolver configures how wire references are turned into widgets.
func WithResolver(resolver Resolver) Option {
	return func(cfg *modelConfig) {
		cfg.resolver = resolver
	}
}

// WithEvaluator configures the expression evaluator used by Evaluate and
// constraints.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *modelConfig) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *modelConfig) {
		cfg.schemaGenerator = generator
	}
}
