package model

import "time"

// ProgressExport is the top-level JSON structure for progress log export.
type ProgressExport struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	PassingScore int             `json:"passing_score"`
	Entries      []ProgressEntry `json:"entries"`
	Modules      []ModuleSummary `json:"modules"`
}

// ModuleSummary aggregates recorded attempts for one training module.
type ModuleSummary struct {
	Module       string  `json:"module"`
	Attempts     int     `json:"attempts"`
	Passed       int     `json:"passed"`
	AverageScore float64 `json:"average_score"`
}
