package xplot

import "sort"

// Variables bound in every rule environment next to the widget's properties.
const (
	RuleVarState    = "state"
	RuleVarNow      = "now"
	RuleVarArgs     = "args"
	RuleVarMetadata = "metadata"
	RuleVarModel    = "model"
	RuleVarID       = "id"
)

var reservedRuleVars = map[string]struct{}{
	RuleVarState:    {},
	RuleVarNow:      {},
	RuleVarArgs:     {},
	RuleVarMetadata: {},
	RuleVarModel:    {},
	RuleVarID:       {},
	"call":          {},
}

// ruleEnv is the variable set shared by every engine. Properties are bound as
// top-level names unless they shadow a reserved variable or a protocol key;
// the whole tree stays reachable through state.
type ruleEnv struct {
	vars  map[string]any
	props []string
}

func newRuleEnv(ctx RuleContext) ruleEnv {
	ctx = ctx.withDefaults()
	tree := snapshotAsMap(ctx.Snapshot)
	props := bindableKeys(tree)
	vars := make(map[string]any, len(props)+len(reservedRuleVars))
	for _, key := range props {
		vars[key] = tree[key]
	}
	vars[RuleVarState] = tree
	vars[RuleVarNow] = *ctx.Now
	vars[RuleVarArgs] = ctx.Args
	vars[RuleVarMetadata] = ctx.Metadata
	vars[RuleVarModel] = ctx.Model
	vars[RuleVarID] = ctx.ID
	return ruleEnv{vars: vars, props: props}
}

// withCall binds the registry dispatcher as call(name, args...).
func (env ruleEnv) withCall(registry *FunctionRegistry) ruleEnv {
	if registry == nil {
		return env
	}
	env.vars["call"] = func(name string, arguments ...any) (any, error) {
		return registry.Call(name, arguments...)
	}
	return env
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func bindableKeys(snapshot map[string]any) []string {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		if IsProtocolKey(key) {
			continue
		}
		if _, reserved := reservedRuleVars[key]; reserved {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
