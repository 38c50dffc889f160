package xplot

const (
	// Recommended priorities for preset layering. Higher numbers win.
	ScopePriorityLibrary  = 100
	ScopePriorityTheme    = 200
	ScopePriorityNotebook = 300
	ScopePriorityUser     = 400
)

// LibraryThemeNotebookUser assembles the canonical four-layer preset (library
// → theme → notebook → user). Nil patches are skipped.
func LibraryThemeNotebookUser(library, theme, notebook, user map[string]any) (*Stack, error) {
	candidates := []struct {
		patch map[string]any
		scope Scope
	}{
		{user, NewScope("user", ScopePriorityUser, WithScopeLabel("User"))},
		{notebook, NewScope("notebook", ScopePriorityNotebook, WithScopeLabel("Notebook"))},
		{theme, NewScope("theme", ScopePriorityTheme, WithScopeLabel("Theme"))},
		{library, NewScope("library", ScopePriorityLibrary, WithScopeLabel("Library Defaults"))},
	}
	layers := make([]Layer, 0, len(candidates))
	for _, c := range candidates {
		if c.patch == nil {
			continue
		}
		layers = append(layers, NewLayer(c.scope, c.patch))
	}
	return NewStack(layers...)
}
