package tools

// CoreSet returns the always-available filesystem and planning tools (spec
// §4.3), independent of whatever optional capabilities (sandbox, search,
// fetcher, sub-agents) a given Context wires up.
func CoreSet() []Tool {
	return []Tool{
		NewWriteTodosTool(),
		NewLsTool(),
		NewReadFileTool(),
		NewWriteFileTool(),
		NewEditFileTool(),
		NewGlobTool(),
		NewGrepTool(),
	}
}

// OptionalSet returns the tools whose availability depends on the Context
// supplying the matching capability (task needs Subagent, execute needs
// Sandbox, and so on). Tools whose capability is absent still appear here;
// their Run function reports "not configured" rather than being omitted,
// so the model always sees a stable tool list across a run.
func OptionalSet() []Tool {
	return []Tool{
		NewTaskTool(),
		NewExecuteTool(),
		NewWebSearchTool(),
		NewHTTPRequestTool(),
		NewFetchURLTool(),
	}
}

// ByName indexes a tool slice by name for the agent core's dispatch loop.
func ByName(list []Tool) map[string]Tool {
	out := make(map[string]Tool, len(list))
	for _, t := range list {
		out[t.Name] = t
	}
	return out
}
