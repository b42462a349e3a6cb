package constants

// JobStatus is the canonical status for rows in analyses.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning         JobStatus = "RUNNING"          // in progress
	JobStatusTextOK          JobStatus = "TEXT_OK"          // stage 1 completed (text extracted)
	JobStatusMetricsOK       JobStatus = "METRICS_OK"       // stage 2 completed (metrics extracted)
	JobStatusNarrativeOK     JobStatus = "NARRATIVE_OK"     // stage 3 completed (analysis written)
	JobStatusNarrativeFailed JobStatus = "NARRATIVE_FAILED" // metrics kept, model call failed
	JobStatusFailed          JobStatus = "FAILED"           // terminal failure
)

// Terminal reports whether no further stage will run for s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusMetricsOK, JobStatusNarrativeOK, JobStatusNarrativeFailed, JobStatusFailed:
		return true
	}
	return false
}

// Prompt and derivation defaults shared by the CLI and the daemon.
const (
	DefaultPromptTextLimit = 1500
	DefaultGoal            = "Underwrite this deal and flag anything that needs a closer look"
	MaxUploadMBDefault     = 25
)
