package reconcile

import "time"

// TypeStats counts what a run did to one entity type.
type TypeStats struct {
	Records   int `json:"records"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Patched   int `json:"patched"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Deleted   int `json:"deleted"`
}

// Writes returns the number of rows the type's persist and cleanup changed.
func (s *TypeStats) Writes() int {
	return s.Inserted + s.Updated + s.Patched + s.Deleted
}

// Report summarises one commit run.
type Report struct {
	RunID            string                  `json:"run_id"`
	Subject          string                  `json:"subject"`
	SubjectID        int64                   `json:"subject_id"`
	StartedAt        time.Time               `json:"started_at"`
	Duration         time.Duration           `json:"duration"`
	Order            []TypeName              `json:"order"`
	Types            map[TypeName]*TypeStats `json:"types"`
	CorrectiveWrites int                     `json:"corrective_writes"`
	Events           int                     `json:"events"`
	Ambiguous        int                     `json:"ambiguous_lookups"`
	EncodingRepairs  int                     `json:"encoding_repairs"`
	CleanupFailures  int                     `json:"cleanup_failures"`
	FailedType       TypeName                `json:"failed_type,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

func newReport(runID string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: started.UTC(),
		Types:     make(map[TypeName]*TypeStats),
	}
}

// Stats returns the counters of a type, creating them on first use.
func (r *Report) Stats(t TypeName) *TypeStats {
	s, ok := r.Types[t]
	if !ok {
		s = &TypeStats{}
		r.Types[t] = s
	}
	return s
}

// Writes returns every row changed by the run, corrective writes included.
func (r *Report) Writes() int {
	n := r.CorrectiveWrites
	for _, s := range r.Types {
		n += s.Writes()
	}
	return n
}

// Failed reports whether the run aborted.
func (r *Report) Failed() bool { return r.Error != "" }
