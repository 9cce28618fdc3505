package hook

import (
	"context"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/cperrin88/mrpkg/pkg/errors"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute compiles and runs the script for hookType. A script reports failure by setting
// the global err to an error value or a non-empty string.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hctx Context) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "strings", "text", "time"))

	files := make([]interface{}, len(hctx.Files))
	for i, f := range hctx.Files {
		files[i] = f
	}
	_ = scriptInstance.Add("packageName", hctx.PackageName)
	_ = scriptInstance.Add("packageVersion", hctx.PackageVersion)
	_ = scriptInstance.Add("archivePath", hctx.ArchivePath)
	_ = scriptInstance.Add("root", hctx.Root)
	_ = scriptInstance.Add("files", files)
	_ = scriptInstance.Add("hook", string(hookType))
	// err is predeclared so scripts can assign it without :=.
	_ = scriptInstance.Add("err", "")
	for k, v := range hctx.Vars {
		_ = scriptInstance.Add(k, v)
	}

	compiled, err := scriptInstance.RunContext(ctx)
	if err != nil {
		return errors.Wrapf(ErrHookExecution, "%s: %v", hookType, err)
	}

	errVar := compiled.Get("err")
	switch v := errVar.Value().(type) {
	case error:
		return errors.Wrapf(ErrHookScript, "%s: %s", hookType, v.Error())
	case string:
		if v != "" {
			return errors.Wrapf(ErrHookScript, "%s: %s", hookType, v)
		}
	}
	return nil
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
