package models

// Stage identifies one of the three independent pipeline phases.
type Stage string

const (
	// StageScrape discovers new listings across all enabled searches.
	StageScrape Stage = "scrape"
	// StageDescriptions backfills full descriptions for short records.
	StageDescriptions Stage = "descriptions"
	// StageAI enriches descriptions with AI-extracted metadata.
	StageAI Stage = "ai"
)

// Stages lists the pipeline stages in execution-priority order.
var Stages = []Stage{StageScrape, StageDescriptions, StageAI}

// KnownStage reports whether s names a pipeline stage.
func KnownStage(s Stage) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}
