package domain

// TransactionStatus is a lifecycle state of a Transaction.
//
//	requested ──► contact_exchanged ──► completed
//	    │                 │
//	    └──────► cancelled ◄┘
//
// Completed and cancelled are terminal.
type TransactionStatus string

const (
	StatusRequested        TransactionStatus = "requested"
	StatusContactExchanged TransactionStatus = "contact_exchanged"
	StatusCompleted        TransactionStatus = "completed"
	StatusCancelled        TransactionStatus = "cancelled"
)

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusRequested:        {StatusContactExchanged, StatusCancelled},
	StatusContactExchanged: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s TransactionStatus) Terminal() bool { return len(transitions[s]) == 0 }

// SourcesOf returns every status that may transition into next.
func SourcesOf(next TransactionStatus) []TransactionStatus {
	var out []TransactionStatus
	for _, from := range []TransactionStatus{StatusRequested, StatusContactExchanged, StatusCompleted, StatusCancelled} {
		if from.CanTransitionTo(next) {
			out = append(out, from)
		}
	}
	return out
}
