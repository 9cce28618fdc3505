package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScriptExt is the file extension of hook scripts.
const ScriptExt = ".tengo"

// LoadDir registers every <hook-type>.tengo script found in dir. A missing directory is not
// an error; files with other names are ignored.
func (m *Manager) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading hooks directory %s: %w", ErrHookLoad, dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExt {
			continue
		}
		hookType := HookType(strings.TrimSuffix(entry.Name(), ScriptExt))
		if !hookType.Valid() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("%w: reading %s: %w", ErrHookLoad, entry.Name(), err)
		}
		if err := m.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return err
		}
	}
	return nil
}
