package schemas

// ToolName identifies one of the registered ToolHandlers, or the sentinel
// "none" meaning the default flow.
type ToolName string

const (
	ToolNone     ToolName = "none"
	ToolSearch   ToolName = "search"
	ToolCompare  ToolName = "compare"
	ToolDetails  ToolName = "details"
	ToolEnsemble ToolName = "ensemble"
)

// KnownToolTypes is the closed set of tool types a ToolDefinition's Type may
// name.
var KnownToolTypes = map[ToolName]bool{
	ToolSearch:   true,
	ToolCompare:  true,
	ToolDetails:  true,
	ToolEnsemble: true,
}

// ToolDefinition is one entry of the tool-definitions document loaded at
// startup (§6, §3 data model). Validity (non-empty Id, known Type) is
// checked by the config loader against an embedded JSON Schema before the
// document is decoded into these structs.
type ToolDefinition struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       ToolName          `json:"type"`
	Enabled    bool              `json:"enabled"`
	Priority   int               `json:"priority"`
	Parameters map[string]string `json:"parameters,omitempty"`
}
