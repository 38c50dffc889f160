//go:build !js_eval

package xplot

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag.
// Passing the nil result to WithEvaluator keeps the default expr engine.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
