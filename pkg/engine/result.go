package engine

// Result is the terminal artifact of one pipeline run. Immutable once
// returned; background persistence receives its own reference and must
// not touch it.
type Result struct {
	ID                string         `json:"id"`
	StatusLabel       string         `json:"status"`
	ColorTag          string         `json:"color"`
	Confidence        int            `json:"confidence"`
	TotalScore        int            `json:"total_score"`
	Reasons           []string       `json:"reasons"`
	RecommendedAction string         `json:"recommended_action"`
	Indicators        map[string]any `json:"technical_indicators"`
	AnalyzedText      string         `json:"analyzed_text"`
	Invalid           bool           `json:"invalid,omitempty"`
}
