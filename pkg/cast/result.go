package cast

// ChangedProperty describes a keyword-level change at a property path.
type ChangedProperty struct {
	Path   string `json:"path"`
	Change string `json:"change"`
}

// Result is the outcome of a cast or compatibility check. It is always
// fully populated: incompatibilities accumulate as reasons instead of
// aborting, and CastedEntity is nil only when migration failed
// outright.
type Result struct {
	From                   string            `json:"from"`
	To                     string            `json:"to"`
	Direction              string            `json:"direction"`
	AddedProperties        []string          `json:"added_properties"`
	RemovedProperties      []string          `json:"removed_properties"`
	ChangedProperties      []ChangedProperty `json:"changed_properties"`
	IsFullyCompatible      bool              `json:"is_fully_compatible"`
	IsBackwardCompatible   bool              `json:"is_backward_compatible"`
	IsForwardCompatible    bool              `json:"is_forward_compatible"`
	IncompatibilityReasons []string          `json:"incompatibility_reasons"`
	BackwardErrors         []string          `json:"backward_errors"`
	ForwardErrors          []string          `json:"forward_errors"`
	CastedEntity           map[string]any    `json:"casted_entity"`
	Error                  string            `json:"error,omitempty"`
}

func newResult(from, to, direction string) *Result {
	return &Result{
		From:                   from,
		To:                     to,
		Direction:              direction,
		AddedProperties:        []string{},
		RemovedProperties:      []string{},
		ChangedProperties:      []ChangedProperty{},
		IncompatibilityReasons: []string{},
		BackwardErrors:         []string{},
		ForwardErrors:          []string{},
	}
}

// ErrorResult builds a result that only carries an error message.
func ErrorResult(msg string) *Result {
	res := newResult("", "", "unknown")
	res.Error = msg
	return res
}
