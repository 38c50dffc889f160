package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without an explicit channel.
const DefaultChannel = "widgets"

// Config controls whether an emitter forwards events, on which channel and
// for which notebook.
type Config struct {
	Enabled  bool
	Channel  string
	Notebook string
}

// Emitter fans out widget events to hooks while applying defaults.
type Emitter struct {
	hooks    Hooks
	enabled  bool
	channel  string
	notebook string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	normalized := CloneHooks(hooks)
	return &Emitter{
		hooks:    normalized,
		enabled:  cfg.Enabled && len(normalized) > 0,
		channel:  channel,
		notebook: strings.TrimSpace(cfg.Notebook),
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Channel returns the default channel.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Notebook returns the notebook stamped on events that carry none.
func (e *Emitter) Notebook() string {
	if e == nil {
		return ""
	}
	return e.notebook
}

// Emit forwards the event to all hooks, filling in the channel and notebook
// when the event leaves them empty.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.Notebook) == "" {
		event.Notebook = e.notebook
	}
	return e.hooks.Notify(ctx, event)
}

// CloneHooks copies hooks dropping nil entries. It returns nil when nothing is
// left.
func CloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return Hooks(normalized)
}
