package models

// CommandResult is the normalized outcome of a single command execution.
// Output is meaningful when Failed is false, Message otherwise.
type CommandResult struct {
	Failed  bool   `json:"failed"`
	Output  string `json:"output,omitempty"`
	Message string `json:"message,omitempty"`
}
