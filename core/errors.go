package core

import "fmt"

// PreconditionError aborts attribute computation before any distributed
// work starts: the dataset is not in a state the engine can safely read.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("attribute precondition failed: %s", e.Reason)
}
