package edit

// Failure records an operation that could not be applied.
type Failure struct {
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// BatchResult is the outcome of ApplyBatch. Content reflects every
// operation in Applied, in order.
type BatchResult struct {
	Content string    `json:"-"`
	Applied []string  `json:"applied"`
	Failed  []Failure `json:"failed"`
}

// ApplyBatch applies ops in order, each against the output of the one
// before. A failing operation is recorded and skipped; it never aborts the
// batch or rolls back earlier operations.
func ApplyBatch(content string, ops []Operation, loc Locator) BatchResult {
	r := BatchResult{Content: content, Applied: []string{}, Failed: []Failure{}}
	for _, op := range ops {
		next, err := Apply(r.Content, op, loc)
		if err != nil {
			r.Failed = append(r.Failed, Failure{Description: op.Describe(), Reason: err.Error()})
			continue
		}
		r.Content = next
		r.Applied = append(r.Applied, op.Describe())
	}
	return r
}
