package runner

// Per-kind configuration records, decoded from a node's free-form config
// map via parseConfig. Field comments document the default applied when the
// wire value is absent. Only kinds with more than a couple of scalar knobs
// get a struct; simple kinds read directly from the map with
// stringOr/intOr/boolOr.

// CurriculumSelectorConfig configures the curriculum-selector node.
type CurriculumSelectorConfig struct {
	// SubjectArea is the curriculum subject (default: "ela")
	SubjectArea string `json:"subjectArea,omitempty"`
	// Strand is the curriculum strand within the subject (optional)
	Strand string `json:"strand,omitempty"`
	// SpecificOutcomes lists the targeted learning outcomes
	SpecificOutcomes []string `json:"specificOutcomes,omitempty"`
}

// ContentGeneratorConfig configures content-generator.
// math-problem-generator does not use it; that runner reads topic and
// difficulty straight from the config map.
type ContentGeneratorConfig struct {
	// ContentType is the kind of content to produce (e.g. "passage", "story")
	ContentType string `json:"contentType,omitempty"`
	// Length is a rough target length in words (default: 150)
	Length int `json:"length,omitempty"`
	// Topic seeds the generated content
	Topic string `json:"topic,omitempty"`
}

// VocabularyBuilderConfig configures the vocabulary-builder node.
type VocabularyBuilderConfig struct {
	// MaxWords caps the vocabulary list (default: 5)
	MaxWords int `json:"maxWords,omitempty"`
}

// L1BridgeConfig configures the l1-bridge node.
type L1BridgeConfig struct {
	// BridgeMode selects the translation strategy (default: "full")
	BridgeMode string `json:"bridgeMode,omitempty"`
}

// HumanInputConfig configures the human-input node.
type HumanInputConfig struct {
	// Prompt is shown to the student
	Prompt string `json:"prompt"`
	// InputType hints at the expected answer shape (default: "text")
	InputType string `json:"inputType,omitempty"`
}

// ComprehensionCheckConfig configures comprehension-check/multiple-choice.
type ComprehensionCheckConfig struct {
	Questions    []any `json:"questions,omitempty"`
	// PassThreshold is the fraction of correct answers considered a pass (default: 0.7)
	PassThreshold float64 `json:"passThreshold,omitempty"`
}

// LoopConfig configures the loop node.
type LoopConfig struct {
	// MaxIterations caps how many times the loop node runs; the body runs
	// after every run except the last (default: 5)
	MaxIterations int `json:"maxIterations,omitempty"`
}

// ConditionalConfig configures the conditional node.
type ConditionalConfig struct {
	// Condition is an expr-lang boolean expression evaluated against inputs+context variables
	Condition string `json:"condition"`
}

// ProficiencyRouterConfig configures the proficiency-router node.
type ProficiencyRouterConfig struct {
	// RoutingCriteria maps a route name to a minimum score threshold
	RoutingCriteria map[string]float64 `json:"routingCriteria,omitempty"`
}

// MergeConfig configures the merge node.
type MergeConfig struct {
	// Strategy selects how inputs combine (default: "concatenate")
	Strategy string `json:"mergeStrategy,omitempty"`
	// ScoreField names the numeric field select-best compares (default: "score")
	ScoreField string `json:"scoreField,omitempty"`
}

// CelebrationConfig configures the celebration node.
type CelebrationConfig struct {
	// CelebrationType selects the decoration style (default: "badge")
	CelebrationType string `json:"celebrationType,omitempty"`
	Message         string `json:"message,omitempty"`
}

// PromptTemplateConfig configures the prompt-template node.
type PromptTemplateConfig struct {
	// Template is a {{variable}}-substitutable prompt string
	Template string `json:"template"`
}

// StructuredOutputConfig configures the structured-output node.
type StructuredOutputConfig struct {
	Schema map[string]any `json:"schema,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

// AIModelConfig configures the generic ai-model node.
type AIModelConfig struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Stream      bool    `json:"stream,omitempty"`
}

// ScaffoldedContentConfig configures scaffolded-content.
type ScaffoldedContentConfig struct {
	// Supports lists the scaffolding techniques to apply (default: all of them)
	Supports []string `json:"supports,omitempty"`
}
