// Package render derives everything a surface displays from the controller state.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/model"
)

const (
	VerdictChurn = "likely to churn"
	VerdictStay  = "likely to stay"

	LabelIdle    = "Predict Churn"
	LabelPending = "Predicting..."

	churnThreshold = 0.5
)

var hundred = decimal.NewFromInt(100)

// Options tunes the high-risk VIP classification
type Options struct {
	HighRiskProbability float64
	VIPMonetary         float64
}

// DefaultOptions mirrors the scoring service alert rule
func DefaultOptions() Options {
	return Options{HighRiskProbability: 0.75, VIPMonetary: 1000}
}

// Result is the result panel shown for a successful prediction
type Result struct {
	Probability float64
	Percent     string
	Verdict     string
	HighRiskVIP bool
	Request     model.PredictionRequest
}

// Headline is the panel title line
func (r Result) Headline() string {
	return "Churn Probability: " + r.Percent
}

// Summary is the panel interpretation sentence
func (r Result) Summary() string {
	return "This customer is " + r.Verdict + "."
}

// FieldView is one input of the form
type FieldView struct {
	Name  string
	Label string
	Value string
}

// View is the complete form as it should be displayed
type View struct {
	Fields         []FieldView
	ButtonLabel    string
	ButtonDisabled bool
	Result         *Result
}

// FormatPercent renders p*100 with exactly two decimals and a % suffix
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).Mul(hundred).StringFixed(2) + "%"
}

// Interpret classifies p; exactly 0.5 counts as staying
func Interpret(p float64) string {
	if p > churnThreshold {
		return VerdictChurn
	}
	return VerdictStay
}

// ResultFor returns the result panel for an outcome, nil unless it is a Success
func ResultFor(o model.Outcome, opts Options) *Result {
	if o.Kind != model.OutcomeSuccess {
		return nil
	}
	return &Result{
		Probability: o.Probability,
		Percent:     FormatPercent(o.Probability),
		Verdict:     Interpret(o.Probability),
		HighRiskVIP: o.Probability > opts.HighRiskProbability && o.Request.Monetary > opts.VIPMonetary,
		Request:     o.Request,
	}
}

// Render builds the view for a controller snapshot
func Render(st controller.State, opts Options) View {
	v := View{
		ButtonLabel:    LabelIdle,
		ButtonDisabled: st.Pending,
		Result:         ResultFor(st.Outcome, opts),
	}
	if st.Pending {
		v.ButtonLabel = LabelPending
	}
	for _, f := range model.Fields {
		v.Fields = append(v.Fields, FieldView{
			Name:  string(f),
			Label: f.Label(),
			Value: st.Values[f],
		})
	}
	return v
}

// Text renders the view for plain text surfaces
func (v View) Text() string {
	var sb strings.Builder
	for _, f := range v.Fields {
		sb.WriteString(fmt.Sprintf("%s: %s\n", f.Label, f.Value))
	}
	if v.ButtonDisabled {
		sb.WriteString(v.ButtonLabel + "\n")
	}
	if v.Result != nil {
		sb.WriteString("\n" + v.Result.Headline() + "\n")
		sb.WriteString(v.Result.Summary() + "\n")
		if v.Result.HighRiskVIP {
			sb.WriteString("High-risk VIP customer.\n")
		}
	}
	return sb.String()
}
