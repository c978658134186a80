package hooks

// HookType represents the type of hooks.
type HookType string

// Supported hooks types.
const (
	PreDownload  HookType = "pre-download"
	PostDownload HookType = "post-download"
)

// Types lists the supported hook types in execution order.
var Types = []HookType{PreDownload, PostDownload}

// Hook represents a hooks script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	Product  string // e.g. "CHIRPS"
	Date     string // RFC 3339 timestamp of the requested slice
	Timestep string
	Source   string // URL or sync remote path
	OutPath  string
	Vars     map[string]interface{}
}
