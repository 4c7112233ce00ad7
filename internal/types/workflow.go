package types

// WorkflowMeta identifies a workflow document.
type WorkflowMeta struct {
	FlowName    string `yaml:"flow_name" json:"flow_name"`
	FlowID      int    `yaml:"flow_id" json:"flow_id"`
	Owner       string `yaml:"owner" json:"owner"`
	Description string `yaml:"description" json:"description"`
}

// WorkflowAgent describes a participant's role and action verbs.
type WorkflowAgent struct {
	Role  string   `yaml:"role" json:"role"`
	Verbs []string `yaml:"verbs" json:"verbs"`
}

// WorkflowSchedule describes how a workflow is triggered.
type WorkflowSchedule struct {
	Trigger      string `yaml:"trigger" json:"trigger"`
	FallbackCron string `yaml:"fallback_cron" json:"fallback_cron"`
}

// WorkflowStep is one pipeline stage with its hand-off target.
type WorkflowStep struct {
	ID         int    `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Agent      string `yaml:"agent" json:"agent"`
	Verb       string `yaml:"verb" json:"verb"`
	Input      string `yaml:"input" json:"input"`
	Output     string `yaml:"output" json:"output"`
	HandoverTo string `yaml:"handover_to" json:"handover_to,omitempty"`
}

// Workflow is a parsed workflow document.
type Workflow struct {
	Meta     WorkflowMeta             `yaml:"meta" json:"meta"`
	Agents   map[string]WorkflowAgent `yaml:"agents" json:"agents"`
	Schedule WorkflowSchedule         `yaml:"schedule" json:"schedule"`
	Steps    []WorkflowStep           `yaml:"steps" json:"steps"`
}
