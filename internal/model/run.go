package model

import "time"

// RunSource identifies what produced the raw text a run recovered.
type RunSource string

const (
	RunSourceRecover  RunSource = "recover"
	RunSourceGenerate RunSource = "generate"
	RunSourceAPI      RunSource = "api"
)

// Run records one trip through the recovery pipeline: what came in, which
// strategy won, and the survey that came out. The raw input itself is not
// stored; the hash is enough to spot repeat inputs.
type Run struct {
	ID          string    `json:"id"`
	Source      RunSource `json:"source"`
	InputSHA256 string    `json:"input_sha256"`
	InputBytes  int       `json:"input_bytes"`
	Strategy    string    `json:"strategy"`
	Confidence  float64   `json:"confidence"`
	Questions   int       `json:"questions"`
	Survey      *Survey   `json:"survey,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
