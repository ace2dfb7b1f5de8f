package domain

// ChecklistDetails carries the report fragment a checklist item was derived from.
type ChecklistDetails struct {
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
	Price       *int64 `json:"price,omitempty"`
}

// ChecklistItem is a renderable roadmap task with independent completion tracking.
type ChecklistItem struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Completed bool              `json:"completed"`
	Details   *ChecklistDetails `json:"details,omitempty"`
}

// CompletionMap maps checklist item ids to their completion state.
// It lives beside the report, never inside it.
type CompletionMap map[string]bool

// Clone returns a copy of the map.
func (m CompletionMap) Clone() CompletionMap {
	out := make(CompletionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
