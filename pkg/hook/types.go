// Package hook runs site-local Tengo scripts at package lifecycle points.
package hook

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PostInstall HookType = "post-install"
	PreRemove   HookType = "pre-remove"
	PostRemove  HookType = "post-remove"
)

// Types lists every supported hook type.
var Types = []HookType{PostInstall, PreRemove, PostRemove}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// Context is exposed to scripts as variables.
type Context struct {
	PackageName    string
	PackageVersion string
	// ArchivePath is the downloaded archive, empty on removal.
	ArchivePath string
	Root        string
	Files       []string
	Vars        map[string]interface{}
}
