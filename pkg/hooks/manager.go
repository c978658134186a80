// Package hooks runs user-supplied Tengo scripts around product downloads.
//
// A pre-download hook can veto a download by setting its err variable. A
// post-download hook sees the finished file and may post-process it.
package hooks

import (
	"context"
	"slices"
)

// Manager keeps one script per hook type.
type Manager struct {
	executor *TengoExecutor
}

// NewHookManager creates a new hook manager.
func NewHookManager() *Manager {
	return &Manager{executor: NewTengoExecutor()}
}

// Execute runs the specified hook type with the given context. Missing hooks
// are a no-op.
func (m *Manager) Execute(ctx context.Context, hookType HookType, hc HookContext) error {
	if m == nil || !m.HasHook(hookType) {
		return nil
	}
	if hc.Vars == nil {
		hc.Vars = make(map[string]interface{})
	}
	return m.executor.Execute(ctx, hookType, hc)
}

// AddHook adds or replaces a hook.
func (m *Manager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return ErrHookTypeEmpty
	}
	if !slices.Contains(Types, hook.Type) {
		return ErrUnsupportedHookType(hook.Type)
	}
	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// RemoveHook removes a hook of the specified type.
func (m *Manager) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return ErrHookTypeEmpty
	}
	m.executor.RemoveScript(hookType)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *Manager) HasHook(hookType HookType) bool {
	return m.executor.HasScript(hookType)
}
