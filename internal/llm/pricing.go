package llm

import "strings"

// ModelInfo describes a selectable model and its list price in USD.
type ModelInfo struct {
	ID                   string  `json:"id" yaml:"id"`
	Name                 string  `json:"name" yaml:"name"`
	Kind                 Kind    `json:"kind" yaml:"kind"`
	InputPricePerMToken  float64 `json:"inputPricePerMToken" yaml:"inputPricePerMToken"`
	OutputPricePerMToken float64 `json:"outputPricePerMToken" yaml:"outputPricePerMToken"`
}

var models = []ModelInfo{
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Kind: KindGemini, InputPricePerMToken: 0.15, OutputPricePerMToken: 0.60},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Kind: KindGemini, InputPricePerMToken: 0.10, OutputPricePerMToken: 0.40},
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash-Lite", Kind: KindGemini, InputPricePerMToken: 0.075, OutputPricePerMToken: 0.30},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude 4.5 Haiku", Kind: KindClaude, InputPricePerMToken: 0.80, OutputPricePerMToken: 4.00},
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude 4.5 Sonnet", Kind: KindClaude, InputPricePerMToken: 3.00, OutputPricePerMToken: 15.00},
	{ID: "llama3.1", Name: "Llama 3.1 (Ollama)", Kind: KindOllama},
}

// Models returns the known model catalog.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(models))
	copy(out, models)
	return out
}

// LookupModel finds a model by ID.
func LookupModel(id string) (ModelInfo, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// EstimateCost returns the USD cost of usage on model. Unknown models cost 0.
func EstimateCost(model string, usage Usage) float64 {
	m, ok := LookupModel(model)
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*m.InputPricePerMToken +
		float64(usage.OutputTokens)/1_000_000*m.OutputPricePerMToken
}

// IsThinkingModel reports whether model spends a thinking budget by default.
func IsThinkingModel(model string) bool {
	return strings.HasPrefix(model, "gemini-2.5")
}
