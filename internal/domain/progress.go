package domain

// RunProgress is the caller-visible state of the aggregation run. Snapshots are
// immutable once published; Version increases with every published snapshot.
type RunProgress struct {
	Version     uint64 `json:"version"`
	Active      bool   `json:"active"`
	Progress    int    `json:"progress"`
	Message     string `json:"message"`
	JobCount    int    `json:"job_count"`
	CurrentRole string `json:"current_role"`
}

func IdleProgress() RunProgress {
	return RunProgress{Message: "Idle"}
}
