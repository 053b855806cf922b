package core

// Artifact represents any persisted output of the analysis pipeline
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactPLVSeries is a per-pair phase-locking time series.
	ArtifactPLVSeries ArtifactKind = "plv_series"
	// ArtifactBootstrapInterval holds percentile-bootstrap bounds for a PLV series.
	ArtifactBootstrapInterval ArtifactKind = "bootstrap_interval"
	// ArtifactSubjectSummary is a row of the subject-level modeling table.
	ArtifactSubjectSummary ArtifactKind = "subject_summary"
	ArtifactRun            ArtifactKind = "run"
)
