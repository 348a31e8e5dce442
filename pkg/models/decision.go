package models

// SecurityDecision is one security agent action entry with its occurrence count.
type SecurityDecision struct {
	Reason string `json:"reason"`
	Origin string `json:"origin"`
	Action string `json:"action"`
	Count  int    `json:"count"`
}
