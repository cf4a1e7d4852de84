package domain

// The claim lifecycle is never stored; it is derived by reducing the
// ordered audit events for one claim reference. The write path accepts any
// event, so the reducer has to tolerate rows that match no transition and
// flag them instead of failing.

type LifecycleState string

const (
	StateUnsubmitted        LifecycleState = "UNSUBMITTED"
	StateSubmitted          LifecycleState = "SUBMITTED"
	StateExtracting         LifecycleState = "EXTRACTING"
	StateExtracted          LifecycleState = "EXTRACTED"
	StateExtractionFailed   LifecycleState = "EXTRACTION_FAILED"
	StateVerifying          LifecycleState = "VERIFYING"
	StateApproved           LifecycleState = "APPROVED"
	StateNeedsReview        LifecycleState = "NEEDS_REVIEW"
	StateVerificationFailed LifecycleState = "VERIFICATION_FAILED"
)

func (s LifecycleState) Terminal() bool {
	switch s {
	case StateExtractionFailed, StateApproved, StateNeedsReview, StateVerificationFailed:
		return true
	}
	return false
}

// Lifecycle is the reduced view of one claim's event history. Anomalies
// holds events that arrived out of causal order; they stayed in the log but
// did not advance the state.
type Lifecycle struct {
	ClaimReference string         `json:"claim_reference"`
	State          LifecycleState `json:"state"`
	Terminal       bool           `json:"terminal"`
	Anomalies      []ClaimEvent   `json:"anomalies,omitempty"`
}

// ReduceLifecycle folds a claim's events, in insertion order, into its
// derived state.
func ReduceLifecycle(claimReference string, events []ClaimEvent) Lifecycle {
	lc := Lifecycle{
		ClaimReference: claimReference,
		State:          StateUnsubmitted,
	}
	for _, ev := range events {
		next, ok := transition(lc.State, ev)
		if !ok {
			lc.Anomalies = append(lc.Anomalies, ev)
			continue
		}
		lc.State = next
	}
	lc.Terminal = lc.State.Terminal()
	return lc
}

func transition(state LifecycleState, ev ClaimEvent) (LifecycleState, bool) {
	switch ev.Type {
	case EventFormSubmission:
		if state == StateUnsubmitted && ev.Status == EventSuccess {
			return StateSubmitted, true
		}
	case EventDataProcessing:
		switch ev.Status {
		case EventInProgress:
			if state == StateSubmitted {
				return StateExtracting, true
			}
		case EventSuccess:
			if state == StateExtracting {
				return StateExtracted, true
			}
		case EventFailed:
			if state == StateExtracting {
				return StateExtractionFailed, true
			}
		}
	case EventVerification:
		switch ev.Status {
		case EventInProgress:
			if state == StateExtracted {
				return StateVerifying, true
			}
		case EventSuccess:
			if state == StateVerifying {
				return verificationOutcomeState(ev), true
			}
		case EventFailed:
			if state == StateVerifying {
				return StateVerificationFailed, true
			}
		}
	}
	return state, false
}

// The agent records its adjudication as a side effect of its own tool
// calls; the event detail carries the outcome when the agent reported one.
// A successful verification without an explicit outcome goes to review
// rather than being inferred from free text.
func verificationOutcomeState(ev ClaimEvent) LifecycleState {
	outcome, _ := ev.Detail[DetailOutcome].(string)
	if outcome == string(ClaimStatusApproved) {
		return StateApproved
	}
	return StateNeedsReview
}
