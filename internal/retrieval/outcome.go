package retrieval

// State is the tri-state result of a retrieval lineage.
type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateFailed   State = "failed"
)

// Outcome is the single slot a retrieval lineage writes. Each lineage fully
// replaces prior outcome state.
type Outcome struct {
	State       State
	Code        string
	Reason      string
	Attempt     int
	MaxAttempts int
}

// Terminal reports whether the lineage has concluded.
func (o Outcome) Terminal() bool {
	return o.State == StateResolved || o.State == StateFailed
}
