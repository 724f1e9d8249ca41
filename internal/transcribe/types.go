// Package transcribe submits call audio to the external
// transcription/sentiment engine and polls jobs to completion.
package transcribe

import "errors"

// Job status values reported by the engine.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Speaker roles derived from engine speaker tags.
const (
	RoleAgent    = "Agent"
	RoleCustomer = "Customer"
)

var (
	// ErrEngine is returned when the engine reports an explicit error
	// status for a job. Terminal for the call in this run.
	ErrEngine = errors.New("transcription engine reported error")

	// ErrPollBudgetExhausted is returned when a job does not finish
	// within the attempt budget.
	ErrPollBudgetExhausted = errors.New("transcription poll budget exhausted")
)

// Utterance is one diarized speaker turn. Speaker is the engine's
// opaque tag (single letters); Role is the derived Agent/Customer label.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Role       string  `json:"role"`
	Text       string  `json:"text"`
	StartMs    int     `json:"start_ms"`
	EndMs      int     `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

// Sentiment is one sentiment annotation from the engine.
type Sentiment struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Entity is one detected entity.
type Entity struct {
	Type string `json:"entity_type"`
	Text string `json:"text"`
}

// Transcript is a completed engine result. The engine performs
// diarization, summarization, sentiment, and entity detection
// server-side; nothing here is computed locally.
type Transcript struct {
	Text       string      `json:"text"`
	Utterances []Utterance `json:"utterances"`
	Sentiments []Sentiment `json:"sentiments"`
	Entities   []Entity    `json:"entities"`
	Summary    string      `json:"summary"`
}

// JobStatus is the tagged poll result, decoded at the HTTP boundary so
// nothing loosely-typed travels deeper into the pipeline.
type JobStatus struct {
	ID         string
	Status     string
	Transcript *Transcript // set when Status == StatusCompleted
	Error      string      // set when Status == StatusError
}

// MapRoles assigns Agent/Customer roles in place. The first speaker tag
// encountered is treated as the agent and every other tag as the
// customer. This is a labeling convention, not a verified fact: it
// breaks for multi-party calls and calls where the customer speaks
// first, which is why the raw Speaker tag is kept on every utterance.
func MapRoles(utterances []Utterance) {
	if len(utterances) == 0 {
		return
	}
	agentTag := utterances[0].Speaker
	for i := range utterances {
		if utterances[i].Speaker == agentTag {
			utterances[i].Role = RoleAgent
		} else {
			utterances[i].Role = RoleCustomer
		}
	}
}
