package registry

import (
	"fmt"
	"strings"

	"a2aclient/internal/types"
)

type familyMember struct {
	name        string
	role        string
	description string
	superpowers []string
}

// aiFamily is the seed roster. Ordering matters: orchestration priority is
// derived from position.
var aiFamily = []familyMember{
	{
		name:        "Lyra",
		role:        "Master Orchestrator",
		description: "The master conductor of the AI symphony. Lyra supervises overall task flows, coordinates multi-agent operations, and ensures the entire ecosystem works in harmony.",
		superpowers: []string{"Dynamic multi-agent task orchestration", "Cross-application workflow management", "Resource allocation and optimization", "Global state monitoring and reporting"},
	},
	{
		name:        "Kara",
		role:        "Security and Compliance",
		description: "The vigilant guardian of the ecosystem. Kara monitors agent actions, ensures safe orchestration, and enforces governance protocols to maintain system integrity.",
		superpowers: []string{"Real-time agent action monitoring", "Security policy enforcement", "Compliance auditing and reporting", "Threat detection and response"},
	},
	{
		name:        "Sophia",
		role:        "Semantic Intelligence",
		description: "The brain of the operation. Sophia handles complex reasoning, semantic mapping, and context linking, providing deep understanding and insights across applications.",
		superpowers: []string{"Natural language understanding and generation", "Complex data relationship mapping", "Cross-domain context linking", "Knowledge graph management"},
	},
	{
		name:        "Cecilia",
		role:        "Assistive Technology Lead",
		description: "The operator's trusted aide. Cecilia provides real-time guidance, adaptive support, and proactive assistance to enhance operator effectiveness and decision-making.",
		superpowers: []string{"Context-aware operator guidance", "Adaptive UI/UX adjustments", "Proactive support and suggestions", "Real-time performance feedback"},
	},
	{
		name:        "Dan",
		role:        "Code Execution Specialist",
		description: "The master of execution. Dan takes compiled plans and turns them into reality, specializing in robust code execution, scripting, and automation.",
		superpowers: []string{"Secure code execution environments", "Automated script deployment", "CI/CD pipeline integration", "Task execution and logging"},
	},
	{
		name:        "Stan",
		role:        "Software Testing Specialist",
		description: "The quality assurance champion. Stan is responsible for rigorous testing, validation, and verification of all software components to ensure bug-free deployments.",
		superpowers: []string{"Automated testing frameworks", "End-to-end integration testing", "Performance and load testing", "Bug tracking and reporting"},
	},
	{
		name:        "Dude",
		role:        "Creative Output Specialist",
		description: "The creative spark. Dude specializes in generating novel and compelling creative outputs, from marketing copy to design concepts, pushing creative boundaries.",
		superpowers: []string{"Creative content generation", "Brand voice and style adaptation", "Ideation and brainstorming support", "Multimedia content design"},
	},
	{
		name:        "Andie",
		role:        "Multi-modal Operations",
		description: "The sensory expert. Andie processes and integrates information from various modalities, including text, images, and audio, to create a holistic understanding.",
		superpowers: []string{"Multi-modal data fusion", "Image and video analysis", "Audio processing and transcription", "Cross-modal content generation"},
	},
	{
		name:        "GUAC",
		role:        "Communication Moderator",
		description: "The network diplomat. GUAC oversees all inter-application and inter-agent communication, ensuring messages are secure, efficient, and correctly routed.",
		superpowers: []string{"Secure inter-service messaging", "API gateway management", "Network traffic monitoring", "Communication protocol enforcement"},
	},
}

// DefaultAgents returns the seed roster as fully formed agent records.
func DefaultAgents() []types.Agent {
	agents := make([]types.Agent, 0, len(aiFamily))
	for i, ai := range aiFamily {
		lower := strings.ToLower(ai.name)
		agents = append(agents, types.Agent{
			ID:            "agent-" + lower,
			Name:          ai.name,
			Description:   ai.description,
			Status:        types.StatusOnline,
			OpenAIBinding: fmt.Sprintf("asst_%s_openai", lower),
			GeminiProxy:   lower + "_orchestrator",
			Duties:        append([]string(nil), ai.superpowers...),
			Config: types.AgentConfig{
				MultiModalInferences: types.MultiModalInferences{
					Text:  true,
					Image: ai.name == "Sophia" || ai.name == "Andie",
					Audio: ai.name == "Andie",
				},
				Bindings: types.Bindings{
					Domain:        "ai-intel.info",
					Service:       lower + "-service",
					OpenAIBinding: fmt.Sprintf("asst_%s_openai", lower),
					GeminiProxy:   lower + "_orchestrator",
				},
				OrchestrationPriority: (i % 10) + 1,
			},
		})
	}
	return agents
}
