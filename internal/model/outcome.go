package model

// OutcomeKind tags the variant held by an Outcome
type OutcomeKind int

const (
	OutcomeEmpty OutcomeKind = iota
	OutcomePending
	OutcomeSuccess
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeEmpty:
		return "empty"
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of the most recent submission.
// Probability is meaningful only for OutcomeSuccess, Reason only for OutcomeFailure.
type Outcome struct {
	Kind        OutcomeKind
	Probability float64
	Reason      string
	// Request is the request that produced a Success, kept so that
	// renderers can classify the result against the submitted values.
	Request PredictionRequest
}

// Empty returns the initial outcome
func Empty() Outcome { return Outcome{Kind: OutcomeEmpty} }

// Pending returns the in-flight outcome
func Pending() Outcome { return Outcome{Kind: OutcomePending} }

// Success returns a settled outcome carrying the churn probability
func Success(p float64, req PredictionRequest) Outcome {
	return Outcome{Kind: OutcomeSuccess, Probability: p, Request: req}
}

// Failure returns a settled outcome carrying a diagnostic
func Failure(reason string) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

// Settled reports whether the outcome is Success or Failure
func (o Outcome) Settled() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeFailure
}
