package domain

// SimulationSummary reports one accrual cycle. Per-port commits are
// independent, so failures are counted rather than aborting the cycle.
type SimulationSummary struct {
	PortsProcessed int     `json:"ports_processed"`
	PortsIdle      int     `json:"ports_idle"`
	PortsSkipped   int     `json:"ports_skipped"`
	PortsFailed    int     `json:"ports_failed"`
	TotalEarnings  float64 `json:"total_earnings"`
}

// ResetSummary reports one monthly bulk reset. FailedChunks lists the
// zero-based indexes of batch chunks whose commit failed.
type ResetSummary struct {
	AccountsReset   int   `json:"accounts_reset"`
	PortsReset      int   `json:"ports_reset"`
	ChunksCommitted int   `json:"chunks_committed"`
	FailedChunks    []int `json:"failed_chunks,omitempty"`
}

// PartialFailure reports whether some chunks committed while others did not.
func (s *ResetSummary) PartialFailure() bool {
	return len(s.FailedChunks) > 0
}
