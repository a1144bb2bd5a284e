package ai

import "encoding/json"

const (
	SummaryGeneral  = "general"
	SummarySchedule = "schedule"
)

type SummaryDTO struct {
	Text   string `json:"text"`
	Type   string `json:"type"`
	APIKey string `json:"apiKey"`
}

type ContentDTO struct {
	Content string `json:"content"`
}

type ArchitectureDTO struct {
	Features []json.RawMessage `json:"features"`
}

// Schedule is an event the model extracted from free text.
type Schedule struct {
	Title    string  `json:"title"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Location *string `json:"location"`
}

// SummaryResult is the /ai/summary reply. Schedule is only present for
// schedule summaries and is null when no date was found.
type SummaryResult struct {
	Summary     string    `json:"summary"`
	Schedule    *Schedule `json:"schedule"`
	hasSchedule bool
}

func (r SummaryResult) MarshalJSON() ([]byte, error) {
	if !r.hasSchedule {
		return json.Marshal(struct {
			Summary string `json:"summary"`
		}{r.Summary})
	}
	type plain SummaryResult
	return json.Marshal(plain(r))
}

// Intent is the structured reading of a note as a possible calendar entry.
type Intent struct {
	IsSchedule    bool    `json:"isSchedule"`
	Summary       string  `json:"summary"`
	StartDateTime *string `json:"startDateTime"`
	EndDateTime   *string `json:"endDateTime"`
	Description   string  `json:"description"`
	Location      *string `json:"location"`
}
