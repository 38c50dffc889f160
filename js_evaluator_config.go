package xplot

type jsEvaluatorConfig struct {
	cache      ProgramCache
	registry   *FunctionRegistry
	sourceName string
}

// JSEvaluatorOption configures the JS evaluator.
type JSEvaluatorOption func(*jsEvaluatorConfig)

// JSWithProgramCache shares compiled programs through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry binds the registry's functions as globals and
// through call(name, args...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

// JSWithSourceName sets the file name reported in script stack traces.
func JSWithSourceName(name string) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.sourceName = name
	}
}

func applyJSEvaluatorOptions(opts []JSEvaluatorOption) jsEvaluatorConfig {
	cfg := jsEvaluatorConfig{sourceName: "widget-rule.js"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
