package model

import (
	"fmt"
	"math"
)

// Field names one of the three form inputs
type Field string

const (
	FieldRecency   Field = "recency"
	FieldFrequency Field = "frequency"
	FieldMonetary  Field = "monetary"
)

// Fields lists the form inputs in display order
var Fields = []Field{FieldRecency, FieldFrequency, FieldMonetary}

// Label returns the human readable caption of the field
func (f Field) Label() string {
	switch f {
	case FieldRecency:
		return "Recency (days since last purchase)"
	case FieldFrequency:
		return "Frequency (total number of purchases)"
	case FieldMonetary:
		return "Monetary (total spend)"
	default:
		return string(f)
	}
}

// ParseField maps a field name to a Field
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// PredictionRequest is the body sent to the scoring service.
// It is built fresh for every submission and never modified afterwards.
type PredictionRequest struct {
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}

// PredictionResponse is the body returned by the scoring service.
// A nil ChurnProbability means the field was missing or null.
type PredictionResponse struct {
	ChurnProbability *float64 `json:"churn_probability"`
}

// Probability validates the response and returns the churn probability
func (r PredictionResponse) Probability() (float64, error) {
	if r.ChurnProbability == nil {
		return 0, fmt.Errorf("churn_probability missing")
	}
	p := *r.ChurnProbability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("churn_probability %v outside [0,1]", p)
	}
	return p, nil
}
