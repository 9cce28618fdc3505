package hook

import (
	"context"
)

// Manager holds at most one script per hook type.
type Manager struct {
	executor *TengoExecutor
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{executor: NewTengoExecutor()}
}

// Run executes the script registered for hookType. Without a script it is a no-op.
func (m *Manager) Run(ctx context.Context, hookType HookType, hctx Context) error {
	if !m.HasHook(hookType) {
		return nil
	}
	if hctx.Vars == nil {
		hctx.Vars = make(map[string]interface{})
	}
	return m.executor.Execute(ctx, hookType, hctx)
}

// AddHook adds or replaces the script for hook.Type.
func (m *Manager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return ErrHookTypeEmpty
	}
	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *Manager) HasHook(hookType HookType) bool {
	return m.executor.HasScript(hookType)
}
